package model

import "time"

// Status is the lifecycle state of a complaint.
type Status string

const (
    StatusPending    Status = "Pending"
    StatusInProgress Status = "InProgress"
    StatusResolved   Status = "Resolved"
)

// Statuses lists every status in the intended order of progression.
var Statuses = []Status{StatusPending, StatusInProgress, StatusResolved}

// ParseStatus accepts only the exact enum spelling.
func ParseStatus(s string) (Status, bool) {
    st := Status(s)
    return st, st.Valid()
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
    switch s {
    case StatusPending, StatusInProgress, StatusResolved:
        return true
    }
    return false
}

// Transition returns the status a complaint moves to when an admin asks for
// next.  Every valid status is reachable from every other status, including
// moving backwards (Resolved -> Pending) or re-applying the current one.
func Transition(current, next Status) (Status, bool) {
    if !next.Valid() {
        return current, false
    }
    return next, true
}

// Category classifies a complaint.
type Category string

const (
    CategoryGarbage     Category = "Garbage"
    CategoryRoad        Category = "Road"
    CategoryStreetLight Category = "Street Light"
    CategoryWater       Category = "Water"
    CategoryOther       Category = "Other"
)

// Categories lists every accepted category.
var Categories = []Category{CategoryGarbage, CategoryRoad, CategoryStreetLight, CategoryWater, CategoryOther}

// ParseCategory accepts only the exact enum spelling.
func ParseCategory(s string) (Category, bool) {
    for _, c := range Categories {
        if string(c) == s {
            return c, true
        }
    }
    return "", false
}

// Owner is the public projection of the complaint author included in admin
// listings.
type Owner struct {
    Name  string `json:"name"`
    Email string `json:"email"`
}

// Complaint mirrors the 'complaints' table / collection.  CreatedBy is set
// once from the verified caller and never changes.
type Complaint struct {
    ID          string    `json:"id"`
    Title       string    `json:"title"`
    Description string    `json:"description"`
    Category    Category  `json:"category"`
    Status      Status    `json:"status"`
    CreatedBy   string    `json:"createdBy"`
    Owner       *Owner    `json:"owner,omitempty"`
    CreatedAt   time.Time `json:"createdAt"`
    UpdatedAt   time.Time `json:"updatedAt"`
}
