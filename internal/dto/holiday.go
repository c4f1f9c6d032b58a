package dto

// CreateHolidayRequest registers a non-teaching date.
type CreateHolidayRequest struct {
	Date  string `json:"date" validate:"required,date"`
	Title string `json:"title" validate:"required,max=200"`
}

// HolidayQuery selects holidays inside an inclusive window.
type HolidayQuery struct {
	StartDate string `form:"startDate" validate:"required,date"`
	EndDate   string `form:"endDate" validate:"required,date"`
}

// CreateHolidayResult tells whether the date was new.
type CreateHolidayResult struct {
	Date    string `json:"date"`
	Title   string `json:"title"`
	Created bool   `json:"created"`
}
