package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yigit/coursetrack/internal/app/models"
	"github.com/yigit/coursetrack/internal/app/models/dto"
	"github.com/yigit/coursetrack/internal/app/services"
	"github.com/yigit/coursetrack/internal/middleware"
	"github.com/yigit/coursetrack/internal/pkg/helpers"
)

// BlockController handles block-related operations
type BlockController struct {
	blockService services.BlockService
}

// NewBlockController creates a new BlockController
func NewBlockController(blockService services.BlockService) *BlockController {
	return &BlockController{
		blockService: blockService,
	}
}

func parseBlockID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("blockId"), 10, 64)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid block ID").
			WithDetails("Block ID must be a valid number")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return 0, false
	}
	return id, true
}

// CreateBlock handles block creation within a course
// @Summary Create a new block
// @Description Creates a new block in the given course. Blocks of type BLOCK receive the next sequential tracking ID before being stored; a pre-assigned tracking ID from import tooling is preserved.
// @Tags blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Param request body dto.CreateBlockRequest true "Block information"
// @Success 201 {object} dto.APIResponse{data=models.Block} "Block created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 409 {object} dto.ErrorResponse "Tracking ID already in use"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/blocks [post]
func (c *BlockController) CreateBlock(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	var req dto.CreateBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid block data").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	block := &models.Block{
		CourseID:   courseID,
		BlockType:  models.BlockType(req.BlockType),
		Title:      req.Title,
		Content:    req.Content,
		TrackingID: req.TrackingID,
	}

	id, err := c.blockService.CreateBlock(ctx, block)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	block.ID = id
	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      block,
		Timestamp: time.Now(),
	})
}

// GetBlockByID retrieves a block by ID
// @Summary Get block details
// @Description Retrieves detailed information about a specific block by its ID
// @Tags blocks
// @Accept json
// @Produce json
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Param blockId path int true "Block ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=models.Block} "Block retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid block ID format"
// @Failure 404 {object} dto.ErrorResponse "Block not found in this course"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/blocks/{blockId} [get]
func (c *BlockController) GetBlockByID(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}
	id, ok := parseBlockID(ctx)
	if !ok {
		return
	}

	block, err := c.blockService.GetBlockByID(ctx, courseID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      block,
		Timestamp: time.Now(),
	})
}

// ListBlocks retrieves a page of a course's blocks
// @Summary List a course's blocks
// @Description Retrieves the course's blocks in stable tracking order: unassigned blocks first by creation time, then ascending by tracking ID
// @Tags blocks
// @Accept json
// @Produce json
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Param page query int false "Page number (1-based)" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PaginatedResponse} "Blocks retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid course ID"
// @Failure 404 {object} dto.ErrorResponse "Course not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/blocks [get]
func (c *BlockController) ListBlocks(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, size)

	blocks, total, err := c.blockService.ListBlocksByCourse(ctx, courseID, offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data: dto.PaginatedResponse{
			Items:      blocks,
			Pagination: helpers.NewPaginationInfo(total, page, size),
		},
		Timestamp: time.Now(),
	})
}

// UpdateBlock updates a block's content fields
// @Summary Update a block
// @Description Updates a block's title and content. Tracking IDs cannot be changed through this endpoint.
// @Tags blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Param blockId path int true "Block ID" Format(int64) minimum(1)
// @Param request body dto.UpdateBlockRequest true "Updated block information"
// @Success 200 {object} dto.APIResponse{data=models.Block} "Block updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Block not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/blocks/{blockId} [put]
func (c *BlockController) UpdateBlock(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}
	id, ok := parseBlockID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateBlockRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid block data").
			WithDetails(err.Error())
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	block := &models.Block{
		ID:       id,
		CourseID: courseID,
		Title:    req.Title,
		Content:  req.Content,
	}

	if err := c.blockService.UpdateBlock(ctx, block); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	updated, err := c.blockService.GetBlockByID(ctx, courseID, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      updated,
		Timestamp: time.Now(),
	})
}

// DeleteBlock deletes a block
// @Summary Delete a block
// @Description Deletes a block. Tracking IDs of the remaining blocks are left untouched; run a reset to close the gap.
// @Tags blocks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID" Format(int64) minimum(1)
// @Param blockId path int true "Block ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse "Block deleted successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid block ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized - Invalid or missing token"
// @Failure 404 {object} dto.ErrorResponse "Block not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /courses/{id}/blocks/{blockId} [delete]
func (c *BlockController) DeleteBlock(ctx *gin.Context) {
	courseID, ok := parseCourseID(ctx)
	if !ok {
		return
	}
	id, ok := parseBlockID(ctx)
	if !ok {
		return
	}

	if err := c.blockService.DeleteBlock(ctx, courseID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      nil,
		Timestamp: time.Now(),
	})
}
