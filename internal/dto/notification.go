package dto

// ListNotificationsQuery filters the notification inbox.
type ListNotificationsQuery struct {
	Status      string `form:"status" validate:"omitempty,oneof=unread resolved"`
	Type        string `form:"type" validate:"omitempty,oneof=SHORTFALL CLASH"`
	SubjectID   string `form:"subjectId"`
	RecipientID string `form:"recipientId"`
	Page        int    `form:"page" validate:"omitempty,min=1"`
	PageSize    int    `form:"pageSize" validate:"omitempty,min=1,max=200"`
}
