package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockIsTrackable(t *testing.T) {
	tests := []struct {
		blockType BlockType
		want      bool
	}{
		{BlockTypeBlock, true},
		{BlockTypeSection, false},
		{BlockTypeAsset, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.blockType), func(t *testing.T) {
			b := &Block{BlockType: tt.blockType}
			assert.Equal(t, tt.want, b.IsTrackable())
		})
	}
}

func TestBlockHasTrackingID(t *testing.T) {
	zero := int64(0)
	positive := int64(7)
	sentinel := SentinelTrackingID

	tests := []struct {
		name       string
		trackingID *int64
		want       bool
	}{
		{name: "nil is unassigned", trackingID: nil, want: false},
		{name: "sentinel is unassigned", trackingID: &sentinel, want: false},
		{name: "zero is assigned", trackingID: &zero, want: true},
		{name: "positive is assigned", trackingID: &positive, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &Block{BlockType: BlockTypeBlock, TrackingID: tt.trackingID}
			assert.Equal(t, tt.want, b.HasTrackingID())
		})
	}
}

func TestBlockSetTrackingID(t *testing.T) {
	b := &Block{BlockType: BlockTypeBlock}
	b.SetTrackingID(3)

	assert.True(t, b.HasTrackingID())
	assert.Equal(t, int64(3), *b.TrackingID)
}
