package models

// ServiceType classifies what kind of class a session or allowance covers.
type ServiceType string

const (
	ServicePrivate ServiceType = "PRIVATE"
	ServiceGroup   ServiceType = "GROUP"
	ServiceCourse  ServiceType = "COURSE"
)

func (s ServiceType) Valid() bool {
	switch s {
	case ServicePrivate, ServiceGroup, ServiceCourse:
		return true
	}
	return false
}

// Label is the human wording used in warnings and emails.
func (s ServiceType) Label() string {
	switch s {
	case ServicePrivate:
		return "private lesson"
	case ServiceGroup:
		return "group class"
	case ServiceCourse:
		return "course session"
	}
	return string(s)
}
