package valueobject

import "github.com/ignatzorin/rsip-gallery/internal/pkg/apperror"

// ItemStatus - статус модерации материала. Публично виден только approved.
type ItemStatus string

const (
	ItemStatusPending  ItemStatus = "pending"
	ItemStatusApproved ItemStatus = "approved"
	ItemStatusRejected ItemStatus = "rejected"
	ItemStatusFlagged  ItemStatus = "flagged"
	ItemStatusArchived ItemStatus = "archived"
)

// ItemAction - действие модератора над материалом.
type ItemAction string

const (
	ActionApprove ItemAction = "approve"
	ActionReject  ItemAction = "reject"
	ActionFlag    ItemAction = "flag"
	ActionArchive ItemAction = "archive"
)

// itemTransitions: действие -> (допустимые исходные статусы, целевой статус).
var itemTransitions = map[ItemAction]struct {
	from []ItemStatus
	to   ItemStatus
}{
	ActionApprove: {from: []ItemStatus{ItemStatusPending, ItemStatusFlagged}, to: ItemStatusApproved},
	ActionReject:  {from: []ItemStatus{ItemStatusPending, ItemStatusFlagged}, to: ItemStatusRejected},
	ActionFlag:    {from: []ItemStatus{ItemStatusPending}, to: ItemStatusFlagged},
	ActionArchive: {from: []ItemStatus{ItemStatusPending, ItemStatusFlagged}, to: ItemStatusArchived},
}

func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusApproved, ItemStatusRejected, ItemStatusFlagged, ItemStatusArchived:
		return true
	}
	return false
}

// Target возвращает целевой статус действия.
func (a ItemAction) Target() ItemStatus {
	return itemTransitions[a].to
}

// AllowedFrom возвращает исходные статусы, из которых действие допустимо.
func (a ItemAction) AllowedFrom() []string {
	t := itemTransitions[a]
	out := make([]string, len(t.from))
	for i, s := range t.from {
		out[i] = string(s)
	}
	return out
}

func NewItemStatus(status string) (ItemStatus, error) {
	s := ItemStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус материала")
	}
	return s, nil
}

// ReportStatus - статус жалобы.
type ReportStatus string

const (
	ReportStatusPending     ReportStatus = "pending"
	ReportStatusReviewed    ReportStatus = "reviewed"
	ReportStatusDismissed   ReportStatus = "dismissed"
	ReportStatusActionTaken ReportStatus = "action_taken"
)

func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusReviewed, ReportStatusDismissed, ReportStatusActionTaken:
		return true
	}
	return false
}

// CanTransitionTo - жалобы закрываются только из pending.
func (s ReportStatus) CanTransitionTo(newStatus ReportStatus) bool {
	if s != ReportStatusPending {
		return false
	}
	return newStatus == ReportStatusDismissed || newStatus == ReportStatusActionTaken
}

func NewReportStatus(status string) (ReportStatus, error) {
	s := ReportStatus(status)
	if !s.IsValid() {
		return "", apperror.New(apperror.ErrCodeValidation, "некорректный статус жалобы")
	}
	return s, nil
}
