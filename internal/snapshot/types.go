package snapshot

import (
	"sort"
	"strconv"
)

// Class identifies a bridge resource class. Values match the bridge API
// collection names so that address parsing and API paths line up directly.
type Class string

const (
	ClassLights        Class = "lights"
	ClassSensors       Class = "sensors"
	ClassGroups        Class = "groups"
	ClassScenes        Class = "scenes"
	ClassSchedules     Class = "schedules"
	ClassRules         Class = "rules"
	ClassResourceLinks Class = "resourcelinks"

	// ClassConfig is the bridge's own configuration. Addresses may point
	// into it (e.g. /config/localtime) but it is never an entity target.
	ClassConfig Class = "config"
)

// EntityClasses lists the entity-bearing classes in natural restore order:
// physical devices first, then the logical records that reference them.
// Used as a deterministic tie-break wherever ordering matters.
var EntityClasses = []Class{
	ClassLights,
	ClassSensors,
	ClassGroups,
	ClassScenes,
	ClassSchedules,
	ClassRules,
	ClassResourceLinks,
}

// Rank returns the position of the class in EntityClasses, or a value
// past the end for non-entity classes.
func (c Class) Rank() int {
	for i, ec := range EntityClasses {
		if c == ec {
			return i
		}
	}
	return len(EntityClasses)
}

// EntityKey identifies one entity within a snapshot.
type EntityKey struct {
	Class Class
	ID    string
}

// Sensor type values for virtual (bridge-hosted) sensors. These carry no
// paired hardware and can be recreated on a destination bridge.
const (
	SensorCLIPGenericFlag   = "CLIPGenericFlag"
	SensorCLIPGenericStatus = "CLIPGenericStatus"
)

// Scene type values.
const (
	SceneTypeGroup = "GroupScene"
	SceneTypeLight = "LightScene"
)

// ruleStatusDeleted marks rules the bridge has soft-deleted after one of
// their resources disappeared. They are carried in dumps but never restored.
const ruleStatusDeleted = "resourcedeleted"

// Light is a paired luminaire. Identity across bridges is the
// hardware-derived unique id; the bridge-local id is assigned at pairing
// and differs between bridges.
type Light struct {
	Name             string         `json:"name"`
	Type             string         `json:"type,omitempty"`
	ModelID          string         `json:"modelid,omitempty"`
	ManufacturerName string         `json:"manufacturername,omitempty"`
	ProductName      string         `json:"productname,omitempty"`
	UniqueID         string         `json:"uniqueid"`
	SWVersion        string         `json:"swversion,omitempty"`
	State            map[string]any `json:"state,omitempty"`
}

// Sensor is a paired accessory (switch, motion sensor, …) or a virtual
// CLIP sensor hosted by the bridge itself. Physical sensors match by
// unique id; CLIP sensors can be recreated outright.
type Sensor struct {
	Name             string         `json:"name"`
	Type             string         `json:"type"`
	ModelID          string         `json:"modelid,omitempty"`
	ManufacturerName string         `json:"manufacturername,omitempty"`
	SWVersion        string         `json:"swversion,omitempty"`
	UniqueID         string         `json:"uniqueid,omitempty"`
	Recycle          bool           `json:"recycle,omitempty"`
	Config           map[string]any `json:"config,omitempty"`
	State            map[string]any `json:"state,omitempty"`
}

// IsCLIP reports whether the sensor is a virtual CLIP sensor that can be
// recreated on a destination bridge rather than requiring pairing.
func (s *Sensor) IsCLIP() bool {
	return s.Type == SensorCLIPGenericFlag || s.Type == SensorCLIPGenericStatus
}

// Group is a named collection of lights: a plain LightGroup, or a Room or
// Zone (distinguished by Type). Identity across bridges is the name.
type Group struct {
	Name    string         `json:"name"`
	Type    string         `json:"type,omitempty"`
	Class   string         `json:"class,omitempty"`
	Lights  []string       `json:"lights"`
	Sensors []string       `json:"sensors,omitempty"`
	Recycle bool           `json:"recycle,omitempty"`
	Action  map[string]any `json:"action,omitempty"`
}

// AppData is the opaque application blob a scene carries. The official app
// encodes the owning group and display metadata in the Data field; it also
// serves as the stable identity for LightScenes.
type AppData struct {
	Version int    `json:"version,omitempty"`
	Data    string `json:"data,omitempty"`
}

// Scene is a stored lighting state. GroupScenes belong to a group and are
// identified by (group, name); LightScenes list their member lights and
// are identified by (appdata, name).
type Scene struct {
	Name        string                    `json:"name"`
	Type        string                    `json:"type"`
	Group       string                    `json:"group,omitempty"`
	Lights      []string                  `json:"lights,omitempty"`
	Owner       string                    `json:"owner,omitempty"`
	Recycle     bool                      `json:"recycle"`
	AppData     AppData                   `json:"appdata,omitempty"`
	LightStates map[string]map[string]any `json:"lightstates,omitempty"`
}

// Command is a stored bridge API call: the address of the target resource,
// the HTTP method, and the body to send. Used by schedules and rule actions.
type Command struct {
	Address string         `json:"address"`
	Method  string         `json:"method,omitempty"`
	Body    map[string]any `json:"body,omitempty"`
}

// Schedule is a time-triggered command. Identity across bridges is the name.
type Schedule struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Command     Command `json:"command"`
	LocalTime   string  `json:"localtime,omitempty"`
	Status      string  `json:"status,omitempty"`
	AutoDelete  *bool   `json:"autodelete,omitempty"`
	Recycle     bool    `json:"recycle,omitempty"`
}

// Condition is one trigger clause of a rule. The address points into a
// sensor's state (or the bridge config).
type Condition struct {
	Address  string `json:"address"`
	Operator string `json:"operator"`
	Value    string `json:"value,omitempty"`
}

// Rule is a condition/action automation. Identity across bridges is the name.
type Rule struct {
	Name       string      `json:"name"`
	Status     string      `json:"status,omitempty"`
	Conditions []Condition `json:"conditions"`
	Actions    []Command   `json:"actions"`
	Recycle    bool        `json:"recycle,omitempty"`
}

// Deleted reports whether the bridge has soft-deleted this rule.
func (r *Rule) Deleted() bool {
	return r.Status == ruleStatusDeleted
}

// ResourceLink groups rules and schedules with the resources they are
// considered to belong to. Identity across bridges is the name.
type ResourceLink struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Type        string   `json:"type,omitempty"`
	ClassID     int      `json:"classid"`
	Recycle     bool     `json:"recycle,omitempty"`
	Links       []string `json:"links"`
}

// BridgeConfig is the subset of the bridge's own configuration a snapshot
// carries. The timezone drives schedule time adjustment on restore.
type BridgeConfig struct {
	Name      string `json:"name,omitempty"`
	BridgeID  string `json:"bridgeid,omitempty"`
	ModelID   string `json:"modelid,omitempty"`
	SWVersion string `json:"swversion,omitempty"`
	Timezone  string `json:"timezone,omitempty"`
}

// Snapshot is the full captured state of one bridge: one mapping per
// resource class, keyed by the bridge-local id at capture time. The same
// type decodes a live bridge's full-state read, which is how the restore
// pass sees the destination.
type Snapshot struct {
	Lights        map[string]*Light        `json:"lights"`
	Sensors       map[string]*Sensor       `json:"sensors"`
	Groups        map[string]*Group        `json:"groups"`
	Scenes        map[string]*Scene        `json:"scenes"`
	Schedules     map[string]*Schedule     `json:"schedules"`
	Rules         map[string]*Rule         `json:"rules"`
	ResourceLinks map[string]*ResourceLink `json:"resourcelinks"`
	Config        BridgeConfig             `json:"config,omitempty"`
}

// New returns an empty snapshot with all class maps allocated.
func New() *Snapshot {
	return &Snapshot{
		Lights:        make(map[string]*Light),
		Sensors:       make(map[string]*Sensor),
		Groups:        make(map[string]*Group),
		Scenes:        make(map[string]*Scene),
		Schedules:     make(map[string]*Schedule),
		Rules:         make(map[string]*Rule),
		ResourceLinks: make(map[string]*ResourceLink),
	}
}

// IDs returns the ids of the given class in capture order: numeric ids
// ascending, then non-numeric ids (scene GUIDs) lexically. The bridge
// assigns numeric ids in creation order, so this reconstructs the order
// entities were created in.
func (s *Snapshot) IDs(class Class) []string {
	var ids []string
	switch class {
	case ClassLights:
		ids = mapKeys(s.Lights)
	case ClassSensors:
		ids = mapKeys(s.Sensors)
	case ClassGroups:
		ids = mapKeys(s.Groups)
	case ClassScenes:
		ids = mapKeys(s.Scenes)
	case ClassSchedules:
		ids = mapKeys(s.Schedules)
	case ClassRules:
		ids = mapKeys(s.Rules)
	case ClassResourceLinks:
		ids = mapKeys(s.ResourceLinks)
	}
	SortIDs(ids)
	return ids
}

// Has reports whether the snapshot contains an entity of the given class
// and id.
func (s *Snapshot) Has(class Class, id string) bool {
	switch class {
	case ClassLights:
		_, ok := s.Lights[id]
		return ok
	case ClassSensors:
		_, ok := s.Sensors[id]
		return ok
	case ClassGroups:
		_, ok := s.Groups[id]
		return ok
	case ClassScenes:
		_, ok := s.Scenes[id]
		return ok
	case ClassSchedules:
		_, ok := s.Schedules[id]
		return ok
	case ClassRules:
		_, ok := s.Rules[id]
		return ok
	case ClassResourceLinks:
		_, ok := s.ResourceLinks[id]
		return ok
	}
	return false
}

// Name returns the display name of the given entity, or the empty string
// if it does not exist.
func (s *Snapshot) Name(class Class, id string) string {
	switch class {
	case ClassLights:
		if l, ok := s.Lights[id]; ok {
			return l.Name
		}
	case ClassSensors:
		if v, ok := s.Sensors[id]; ok {
			return v.Name
		}
	case ClassGroups:
		if g, ok := s.Groups[id]; ok {
			return g.Name
		}
	case ClassScenes:
		if sc, ok := s.Scenes[id]; ok {
			return sc.Name
		}
	case ClassSchedules:
		if sch, ok := s.Schedules[id]; ok {
			return sch.Name
		}
	case ClassRules:
		if r, ok := s.Rules[id]; ok {
			return r.Name
		}
	case ClassResourceLinks:
		if rl, ok := s.ResourceLinks[id]; ok {
			return rl.Name
		}
	}
	return ""
}

// SortIDs sorts bridge-local ids in place: numeric ids ascending, then
// non-numeric ids lexically.
func SortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		ni, iNum := strconv.Atoi(ids[i])
		nj, jNum := strconv.Atoi(ids[j])
		switch {
		case iNum == nil && jNum == nil:
			return ni < nj
		case iNum == nil:
			return true
		case jNum == nil:
			return false
		default:
			return ids[i] < ids[j]
		}
	})
}

func mapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
