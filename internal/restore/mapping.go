package restore

import (
	"fmt"
	"maps"

	"github.com/greyhollow/huekeep/internal/snapshot"
)

// mapAddress rewrites a stored address into destination terms: the
// referenced entity's snapshot id is replaced with its destination id,
// and API-form addresses are re-rooted under the destination's key.
//
// A reference whose target is not currently available on the destination
// (device not paired, or its creation failed earlier this run) yields a
// skip reason; the referencing entity is left for a later run.
func (a *Applier) mapAddress(addr string, apiForm bool) (string, snapshot.Class, *SkipReason) {
	parsed, err := snapshot.ParseAddress(addr, apiForm)
	if err != nil {
		// Unparseable addresses are rejected by snapshot validation;
		// reaching this means the destination handed one back.
		return "", "", &SkipReason{Kind: ReasonBlocked, Detail: err.Error()}
	}

	if parsed.Class == snapshot.ClassConfig {
		return parsed.Format(a.transport.APIKey()), parsed.Class, nil
	}

	destID, ok := a.ms.DestID(parsed.Class, parsed.ID)
	if !ok {
		return "", "", &SkipReason{
			Kind: ReasonBlocked,
			Detail: fmt.Sprintf("references %s %s (%q) not available on destination",
				parsed.Class, parsed.ID, a.snap.Name(parsed.Class, parsed.ID)),
		}
	}
	return parsed.WithID(destID).Format(a.transport.APIKey()), parsed.Class, nil
}

// mapCommand rewrites a stored command for the destination: its address,
// and, for commands addressing a group, the scene named in its body.
// The snapshot's command is never mutated; the body is cloned.
func (a *Applier) mapCommand(cmd snapshot.Command, apiForm bool) (snapshot.Command, *SkipReason) {
	mapped := cmd
	addr, class, skip := a.mapAddress(cmd.Address, apiForm)
	if skip != nil {
		return snapshot.Command{}, skip
	}
	mapped.Address = addr

	if cmd.Body != nil {
		mapped.Body = maps.Clone(cmd.Body)
	}

	if class == snapshot.ClassGroups {
		if sceneID, ok := cmd.Body["scene"].(string); ok && sceneID != "" {
			destID, ok := a.ms.DestID(snapshot.ClassScenes, sceneID)
			if !ok {
				return snapshot.Command{}, &SkipReason{
					Kind: ReasonBlocked,
					Detail: fmt.Sprintf("references scene %s (%q) not available on destination",
						sceneID, a.snap.Name(snapshot.ClassScenes, sceneID)),
				}
			}
			mapped.Body["scene"] = destID
		}
	}
	return mapped, nil
}

// mapMembers translates a member id list through the destination map for
// the given class, returning the translated ids and the names of members
// that did not resolve.
func (a *Applier) mapMembers(class snapshot.Class, ids []string) (mapped, missing []string) {
	for _, id := range ids {
		if destID, ok := a.ms.DestID(class, id); ok {
			mapped = append(mapped, destID)
		} else {
			missing = append(missing, a.snap.Name(class, id))
		}
	}
	return mapped, missing
}
