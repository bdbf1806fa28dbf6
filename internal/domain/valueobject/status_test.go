package valueobject

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"
)

func TestItemAction_Transitions(t *testing.T) {
	tests := []struct {
		action ItemAction
		from   []string
		target ItemStatus
	}{
		{ActionApprove, []string{"pending", "flagged"}, ItemStatusApproved},
		{ActionReject, []string{"pending", "flagged"}, ItemStatusRejected},
		{ActionFlag, []string{"pending"}, ItemStatusFlagged},
		{ActionArchive, []string{"pending", "flagged"}, ItemStatusArchived},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.from, tt.action.AllowedFrom())
			assert.Equal(t, tt.target, tt.action.Target())
		})
	}
}

func TestItemAction_Unknown(t *testing.T) {
	assert.Empty(t, ItemAction("publish").AllowedFrom())
	assert.Equal(t, ItemStatus(""), ItemAction("publish").Target())
}

func TestNewItemStatus(t *testing.T) {
	s, err := NewItemStatus("flagged")
	require.NoError(t, err)
	assert.Equal(t, ItemStatusFlagged, s)

	_, err = NewItemStatus("deleted")
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}

func TestReportStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from ReportStatus
		to   ReportStatus
		want bool
	}{
		{ReportStatusPending, ReportStatusDismissed, true},
		{ReportStatusPending, ReportStatusActionTaken, true},
		{ReportStatusPending, ReportStatusReviewed, false},
		{ReportStatusPending, ReportStatusPending, false},
		{ReportStatusDismissed, ReportStatusActionTaken, false},
		{ReportStatusActionTaken, ReportStatusDismissed, false},
		{ReportStatusReviewed, ReportStatusDismissed, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewReportStatus(t *testing.T) {
	s, err := NewReportStatus("action_taken")
	require.NoError(t, err)
	assert.Equal(t, ReportStatusActionTaken, s)

	_, err = NewReportStatus("closed")
	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeValidation, apperror.CodeOf(err))
}
