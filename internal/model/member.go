package model

// Member is a class member as served by the roster endpoint and cached on device.
type Member struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AssignedClass string `json:"assigned_class"`
	Phone         string `json:"phone,omitempty"`
	Email         string `json:"email,omitempty"`
}

// RosterResponse is returned by the roster endpoints.
// Source is "remote" or "cache" on the device API.
type RosterResponse struct {
	ClassNumber string   `json:"class_number"`
	Members     []Member `json:"members"`
	Source      string   `json:"source,omitempty"`
}
