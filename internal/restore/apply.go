package restore

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/greyhollow/huekeep/internal/infrastructure/logging"
	"github.com/greyhollow/huekeep/internal/snapshot"
)

// hueAppSceneData matches the official app's scene appdata encoding
// ("xxxxx_rGG_dDD", GG being the owning group id). The group part is
// rewritten so the restored scene shows up under the right room.
var hueAppSceneData = regexp.MustCompile(`^(.....)_r([0-9][0-9])_d([0-9][0-9])$`)

// sensorConfigKeys are the sensor configuration attributes worth carrying
// across bridges. The rest is hardware calibration state owned by the
// destination.
var sensorConfigKeys = []string{"on", "sunriseoffset", "sunsetoffset"}

type outcome int

const (
	outcomeCreated outcome = iota
	outcomeUpdated
	outcomeDeleted
	outcomeSkipped
)

// Applier executes a plan against the destination bridge. It owns the
// run's growing snapshot→destination id knowledge: each successful
// creation records the bridge-assigned id on the entity's correspondence,
// which later operations read through mapAddress and friends.
type Applier struct {
	transport Transport
	snap      *snapshot.Snapshot
	dest      *snapshot.Snapshot
	ms        *MatchSet
	summary   *Summary
	log       *logging.Logger
}

func NewApplier(transport Transport, snap, dest *snapshot.Snapshot, ms *MatchSet, summary *Summary, log *logging.Logger) *Applier {
	return &Applier{
		transport: transport,
		snap:      snap,
		dest:      dest,
		ms:        ms,
		summary:   summary,
		log:       log,
	}
}

// Run applies every planned operation in order. Per-entity problems are
// recorded on the summary and on the entity's correspondence (so that
// dependents applied later see the gap); only a nil plan or an exhausted
// context stops the walk.
func (a *Applier) Run(ctx context.Context, plan *Plan) error {
	for _, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.applyOp(ctx, plan, op)
	}
	return nil
}

func (a *Applier) applyOp(ctx context.Context, plan *Plan, op Operation) {
	corr := a.ms.Lookup(op.Key.Class, op.Key.ID)
	counts := a.summary.Class(op.Key.Class)

	var (
		out  outcome
		skip *SkipReason
		err  error
	)
	switch op.Key.Class {
	case snapshot.ClassLights:
		out, err = a.applyLight(ctx, corr)
	case snapshot.ClassSensors:
		out, err = a.applySensor(ctx, corr)
	case snapshot.ClassGroups:
		out, skip, err = a.applyGroup(ctx, corr)
	case snapshot.ClassScenes:
		out, skip, err = a.applyScene(ctx, corr)
	case snapshot.ClassSchedules:
		out, skip, err = a.applySchedule(ctx, plan, corr)
	case snapshot.ClassRules:
		out, skip, err = a.applyRule(ctx, corr)
	case snapshot.ClassResourceLinks:
		out, skip, err = a.applyResourceLink(ctx, corr)
	}

	switch {
	case err != nil:
		a.log.Error("operation rejected",
			"class", string(op.Key.Class), "id", op.Key.ID, "name", op.Name, "error", err)
		counts.Failed++
		a.summary.Failures = append(a.summary.Failures, Failure{Key: op.Key, Name: op.Name, Err: err.Error()})
		// A failed creation leaves no destination id, so dependents
		// resolve against the gap and are skipped, not misdirected.
		if corr.Status == StatusToCreate {
			corr.Status = StatusUnresolvable
			corr.Reason = &SkipReason{Kind: ReasonCommandFailed, Detail: err.Error()}
		}
	case skip != nil:
		a.log.Warn("skipping entity",
			"class", string(op.Key.Class), "id", op.Key.ID, "name", op.Name, "reason", skip.String())
		counts.Skipped++
		a.summary.Skipped = append(a.summary.Skipped, SkippedEntity{Key: op.Key, Name: op.Name, Reason: *skip})
		if corr.Status == StatusToCreate {
			corr.Status = StatusUnresolvable
			corr.Reason = skip
		}
	case out == outcomeCreated:
		a.log.Info("created entity",
			"class", string(op.Key.Class), "id", op.Key.ID, "name", op.Name, "destID", corr.DestID)
		counts.Created++
	case out == outcomeUpdated:
		a.log.Info("updated entity",
			"class", string(op.Key.Class), "id", op.Key.ID, "name", op.Name, "destID", corr.DestID)
		counts.Updated++
	case out == outcomeDeleted:
		a.log.Info("deleted entity",
			"class", string(op.Key.Class), "id", op.Key.ID, "name", op.Name)
		a.summary.LinksDeleted++
	}
}

// applyLight syncs a matched light's name. Lights are never created: the
// device behind them has to be paired by the operator.
func (a *Applier) applyLight(ctx context.Context, corr *Correspondence) (outcome, error) {
	body := map[string]any{"name": a.snap.Lights[corr.Key.ID].Name}
	if err := a.transport.Put(ctx, "lights/"+corr.DestID, body); err != nil {
		return 0, err
	}
	return outcomeUpdated, nil
}

// applySensor syncs a matched sensor's name and portable config, or
// recreates a virtual CLIP sensor outright.
func (a *Applier) applySensor(ctx context.Context, corr *Correspondence) (outcome, error) {
	sensor := a.snap.Sensors[corr.Key.ID]

	cfg := map[string]any{}
	for _, k := range sensorConfigKeys {
		if v, ok := sensor.Config[k]; ok {
			cfg[k] = v
		}
	}

	if corr.Status == StatusMatched {
		body := map[string]any{"name": sensor.Name}
		if len(cfg) > 0 {
			body["config"] = cfg
		}
		if err := a.transport.Put(ctx, "sensors/"+corr.DestID, body); err != nil {
			return 0, err
		}
		return outcomeUpdated, nil
	}

	body := map[string]any{
		"name":             sensor.Name,
		"modelid":          sensor.ModelID,
		"swversion":        sensor.SWVersion,
		"type":             sensor.Type,
		"uniqueid":         sensor.UniqueID,
		"manufacturername": sensor.ManufacturerName,
		"recycle":          sensor.Recycle,
	}
	if len(cfg) > 0 {
		body["config"] = cfg
	}
	id, err := a.transport.Post(ctx, "sensors", body)
	if err != nil {
		return 0, err
	}
	corr.DestID = id
	return outcomeCreated, nil
}

func (a *Applier) applyGroup(ctx context.Context, corr *Correspondence) (outcome, *SkipReason, error) {
	group := a.snap.Groups[corr.Key.ID]

	lights, missingLights := a.mapMembers(snapshot.ClassLights, group.Lights)
	if len(lights) == 0 {
		return 0, &SkipReason{
			Kind:   ReasonNoLights,
			Detail: fmt.Sprintf("missing lights %q", missingLights),
		}, nil
	}
	sensors, missingSensors := a.mapMembers(snapshot.ClassSensors, group.Sensors)
	if len(missingLights) > 0 || len(missingSensors) > 0 {
		a.summary.Warnings = append(a.summary.Warnings,
			fmt.Sprintf("group %q restored without lights %q and sensors %q",
				group.Name, missingLights, missingSensors))
	}
	if sensors == nil {
		sensors = []string{}
	}

	body := map[string]any{"name": group.Name, "lights": lights, "sensors": sensors}
	if group.Class != "" {
		body["class"] = group.Class
	}

	if corr.Status == StatusMatched {
		if err := a.transport.Put(ctx, "groups/"+corr.DestID, body); err != nil {
			return 0, nil, err
		}
		return outcomeUpdated, nil, nil
	}

	body["type"] = group.Type
	id, err := a.transport.Post(ctx, "groups", body)
	if err != nil {
		return 0, nil, err
	}
	corr.DestID = id
	return outcomeCreated, nil, nil
}

func (a *Applier) applyScene(ctx context.Context, corr *Correspondence) (outcome, *SkipReason, error) {
	scene := a.snap.Scenes[corr.Key.ID]

	body := map[string]any{"name": scene.Name}

	var destGroup string
	if scene.Type == snapshot.SceneTypeGroup {
		dg, ok := a.ms.DestID(snapshot.ClassGroups, scene.Group)
		if !ok {
			return 0, &SkipReason{
				Kind:   ReasonBlocked,
				Detail: fmt.Sprintf("missing group %q", a.snap.Name(snapshot.ClassGroups, scene.Group)),
			}, nil
		}
		destGroup = dg
		body["group"] = destGroup
	} else if len(scene.Lights) > 0 {
		lights, missing := a.mapMembers(snapshot.ClassLights, scene.Lights)
		if len(lights) == 0 {
			return 0, &SkipReason{
				Kind:   ReasonNoLights,
				Detail: fmt.Sprintf("missing lights %q", missing),
			}, nil
		}
		if len(missing) > 0 {
			a.summary.Warnings = append(a.summary.Warnings,
				fmt.Sprintf("scene %q restored without lights %q", scene.Name, missing))
		}
		body["lights"] = lights
	}

	if scene.LightStates == nil {
		return 0, &SkipReason{
			Kind:   ReasonIncomplete,
			Detail: "light states not present in snapshot",
		}, nil
	}
	lightstates := make(map[string]map[string]any)
	for lid, state := range scene.LightStates {
		if destID, ok := a.ms.DestID(snapshot.ClassLights, lid); ok {
			lightstates[destID] = state
		}
	}

	if corr.Status == StatusMatched {
		// The bridge rejects a group change on an existing GroupScene.
		delete(body, "group")
		body["lightstates"] = lightstates
		if err := a.transport.Put(ctx, "scenes/"+corr.DestID, body); err != nil {
			return 0, nil, err
		}
		return outcomeUpdated, nil, nil
	}

	body["type"] = scene.Type
	body["recycle"] = scene.Recycle
	appdata := scene.AppData
	if appdata.Data == "" {
		// Dummy app data keyed by the snapshot id keeps scene identity
		// stable across repeated restores.
		appdata.Version = 1
		appdata.Data = corr.Key.ID
	}
	if scene.Type == snapshot.SceneTypeGroup {
		if m := hueAppSceneData.FindStringSubmatch(appdata.Data); m != nil {
			g := destGroup
			if len(g) == 1 {
				g = "0" + g
			}
			appdata.Data = m[1] + "_r" + g + "_d" + m[3]
		}
	}
	body["appdata"] = appdata
	if len(lightstates) > 0 {
		body["lightstates"] = lightstates
	}
	id, err := a.transport.Post(ctx, "scenes", body)
	if err != nil {
		return 0, nil, err
	}
	corr.DestID = id
	return outcomeCreated, nil, nil
}

func (a *Applier) applySchedule(ctx context.Context, plan *Plan, corr *Correspondence) (outcome, *SkipReason, error) {
	sch := a.snap.Schedules[corr.Key.ID]

	cmd, skip := a.mapCommand(sch.Command, true)
	if skip != nil {
		return 0, skip, nil
	}

	localtime := sch.LocalTime
	if adjusted, ok := plan.LocalTimeOverrides[corr.Key.ID]; ok {
		localtime = adjusted
	}

	body := map[string]any{
		"name":        sch.Name,
		"description": sch.Description,
		"command":     cmd,
		"status":      sch.Status,
		"localtime":   localtime,
	}
	if sch.AutoDelete != nil {
		body["autodelete"] = *sch.AutoDelete
	}

	if corr.Status == StatusMatched {
		if err := a.transport.Put(ctx, "schedules/"+corr.DestID, body); err != nil {
			return 0, nil, err
		}
		return outcomeUpdated, nil, nil
	}

	body["recycle"] = sch.Recycle
	id, err := a.transport.Post(ctx, "schedules", body)
	if err != nil {
		return 0, nil, err
	}
	corr.DestID = id
	return outcomeCreated, nil, nil
}

func (a *Applier) applyRule(ctx context.Context, corr *Correspondence) (outcome, *SkipReason, error) {
	rule := a.snap.Rules[corr.Key.ID]

	conditions := make([]snapshot.Condition, 0, len(rule.Conditions))
	for _, c := range rule.Conditions {
		addr, _, skip := a.mapAddress(c.Address, false)
		if skip != nil {
			return 0, skip, nil
		}
		c.Address = addr
		conditions = append(conditions, c)
	}
	actions := make([]snapshot.Command, 0, len(rule.Actions))
	for _, act := range rule.Actions {
		mapped, skip := a.mapCommand(act, false)
		if skip != nil {
			return 0, skip, nil
		}
		actions = append(actions, mapped)
	}

	body := map[string]any{
		"name":       rule.Name,
		"status":     rule.Status,
		"conditions": conditions,
		"actions":    actions,
	}

	if corr.Status == StatusMatched {
		if err := a.transport.Put(ctx, "rules/"+corr.DestID, body); err != nil {
			return 0, nil, err
		}
		return outcomeUpdated, nil, nil
	}

	body["recycle"] = rule.Recycle
	id, err := a.transport.Post(ctx, "rules", body)
	if err != nil {
		return 0, nil, err
	}
	corr.DestID = id
	return outcomeCreated, nil, nil
}

// applyResourceLink restores a resource link, or removes it when none of
// its surviving links target a rule: a rule-less link is dead weight on
// the destination's automation surface.
func (a *Applier) applyResourceLink(ctx context.Context, corr *Correspondence) (outcome, *SkipReason, error) {
	rl := a.snap.ResourceLinks[corr.Key.ID]

	var links, missing []string
	makesSense := false
	for _, l := range rl.Links {
		addr, class, skip := a.mapAddress(l, false)
		if skip != nil {
			missing = append(missing, l)
			continue
		}
		links = append(links, addr)
		if class == snapshot.ClassRules {
			makesSense = true
		}
	}
	if len(links) == 0 {
		return 0, &SkipReason{
			Kind:   ReasonBlocked,
			Detail: fmt.Sprintf("no restorable links (missing %s)", strings.Join(missing, ", ")),
		}, nil
	}
	if !makesSense {
		if corr.Status == StatusMatched {
			if err := a.transport.Delete(ctx, "resourcelinks/"+corr.DestID); err != nil {
				return 0, nil, err
			}
			corr.DestID = ""
			return outcomeDeleted, nil, nil
		}
		return 0, &SkipReason{Kind: ReasonBlocked, Detail: "no linked rules"}, nil
	}
	if len(missing) > 0 {
		a.summary.Warnings = append(a.summary.Warnings,
			fmt.Sprintf("resource link %q restored without links %q", rl.Name, missing))
	}

	body := map[string]any{
		"name":        rl.Name,
		"description": rl.Description,
		"classid":     rl.ClassID,
		"links":       links,
	}

	if corr.Status == StatusMatched {
		if err := a.transport.Put(ctx, "resourcelinks/"+corr.DestID, body); err != nil {
			return 0, nil, err
		}
		return outcomeUpdated, nil, nil
	}

	body["recycle"] = rl.Recycle
	id, err := a.transport.Post(ctx, "resourcelinks", body)
	if err != nil {
		return 0, nil, err
	}
	corr.DestID = id
	return outcomeCreated, nil, nil
}
