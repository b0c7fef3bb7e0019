package snapshot

import (
	"fmt"
	"regexp"
)

// The bridge uses two address grammars. Schedule commands store the full
// API path including the application key; rule conditions/actions and
// resource link entries store paths relative to the API root.
var (
	apiAddressPattern  = regexp.MustCompile(`^(/api/[^/]+/)([a-zA-Z0-9_]+)/([a-zA-Z0-9_]+)([^a-zA-Z0-9_].*)?$`)
	bareAddressPattern = regexp.MustCompile(`^(/)([a-zA-Z0-9_]+)/([a-zA-Z0-9_]+)([^a-zA-Z0-9_].*)?$`)
)

// Address is a parsed bridge resource address.
type Address struct {
	// Class is the addressed resource class, or ClassConfig for addresses
	// into the bridge's own configuration.
	Class Class

	// ID is the bridge-local identifier of the addressed resource. Empty
	// for ClassConfig addresses, where the path segment is a config key.
	ID string

	// Rest is the trailing path beyond the resource id, including its
	// leading separator (e.g. "/state/buttonevent", "/action").
	Rest string

	// APIForm records which grammar the address was written in, so it can
	// be reformatted the same way.
	APIForm bool
}

// ParseAddress parses a stored bridge address. apiForm selects the grammar:
// true for schedule command addresses (/api/<key>/<class>/<id>...), false
// for rule and resource link addresses (/<class>/<id>...).
//
// Addresses naming a resource class the snapshot model does not carry are
// rejected with ErrInvalidAddress.
func ParseAddress(addr string, apiForm bool) (Address, error) {
	pattern := bareAddressPattern
	if apiForm {
		pattern = apiAddressPattern
	}

	m := pattern.FindStringSubmatch(addr)
	if m == nil {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	class := Class(m[2])
	parsed := Address{
		Class:   class,
		ID:      m[3],
		Rest:    m[4],
		APIForm: apiForm,
	}

	switch class {
	case ClassLights, ClassSensors, ClassGroups, ClassScenes,
		ClassSchedules, ClassRules, ClassResourceLinks:
		return parsed, nil
	case ClassConfig:
		// Config addresses reference a config key, not an entity.
		parsed.ID = ""
		parsed.Rest = "/" + m[3] + m[4]
		return parsed, nil
	default:
		return Address{}, fmt.Errorf("%w: unsupported resource class in %q", ErrInvalidAddress, addr)
	}
}

// Format renders the address back into its stored form. For API-form
// addresses the given application key is embedded, so a restored schedule
// command carries the destination bridge's key rather than the source's.
func (a Address) Format(apiKey string) string {
	if a.Class == ClassConfig {
		if a.APIForm {
			return "/api/" + apiKey + "/config" + a.Rest
		}
		return "/config" + a.Rest
	}
	if a.APIForm {
		return "/api/" + apiKey + "/" + string(a.Class) + "/" + a.ID + a.Rest
	}
	return "/" + string(a.Class) + "/" + a.ID + a.Rest
}

// WithID returns a copy of the address pointing at a different resource id.
func (a Address) WithID(id string) Address {
	a.ID = id
	return a
}
