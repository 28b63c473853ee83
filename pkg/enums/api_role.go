package enums

import "fmt"

// APIRole is the role carried by bearer tokens presented to the API.
type APIRole string

const (
	APIRoleAdmin    APIRole = "admin"
	APIRoleCheckout APIRole = "checkout"
)

var validAPIRoles = []APIRole{
	APIRoleAdmin,
	APIRoleCheckout,
}

func (r APIRole) String() string {
	return string(r)
}

func (r APIRole) IsValid() bool {
	for _, candidate := range validAPIRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

func ParseAPIRole(value string) (APIRole, error) {
	for _, candidate := range validAPIRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid api role %q", value)
}
