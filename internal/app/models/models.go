package models

// RoleType defines the user role type
type RoleType string

const (
	RoleAdmin  RoleType = "ADMIN"  // may renumber course tracking IDs
	RoleAuthor RoleType = "AUTHOR" // may create and edit content
)

// BlockType discriminates the kinds of content a course owns.
type BlockType string

const (
	// BlockTypeBlock is the trackable kind; only blocks of this type carry
	// a tracking ID.
	BlockTypeBlock   BlockType = "BLOCK"
	BlockTypeSection BlockType = "SECTION"
	BlockTypeAsset   BlockType = "ASSET"
)
