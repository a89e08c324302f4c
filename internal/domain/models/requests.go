package models

// DataRequest filters GET /api/data to a single snapshot section.
type DataRequest struct {
	Section string `query:"section" validate:"omitempty,oneof=portfolio macro news tweets"`
}

// UpdateRequest is the body of POST /api/update. Wait controls whether the
// caller blocks for the refresh result or just kicks it off. A pointer keeps
// an explicit false distinguishable from an absent field.
type UpdateRequest struct {
	Wait *bool `json:"wait"`
}

// WaitForResult reports whether the caller wants to block; the default is to
// wait.
func (r *UpdateRequest) WaitForResult() bool {
	return r.Wait == nil || *r.Wait
}
