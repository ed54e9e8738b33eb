package knowledge

import "strings"

// Key lookup tables, tried in order. Exporters disagree on names and nesting,
// so every extractor walks its table and keeps the first valid hit.
var (
	idKeys          = []string{"id", "external_id", "attack_id", "technique_id"}
	referenceKeys   = []string{"external_references", "externalReferences"}
	referenceIDKeys = []string{"external_id", "externalId", "id"}
	nameKeys        = []string{"name", "technique", "title", "x_mitre_deprecated_name"}
	descriptionKeys = []string{"description", "summary", "details"}
	phaseListKeys   = []string{"kill_chain_phases", "killChainPhases"}
	phaseNameKeys   = []string{"phase_name", "phaseName"}
	tacticKeys      = []string{"tactic", "tactics", "phases"}
)

// ExtractID returns the normalized technique ID of rec. Direct keys are tried
// first, then the external reference list.
func ExtractID(rec *Object) (string, bool) {
	if id, ok := firstID(rec, idKeys); ok {
		return id, true
	}

	refs, ok := firstList(rec, referenceKeys)
	if !ok {
		return "", false
	}
	for _, ref := range refs {
		entry, ok := ref.AsObject()
		if !ok {
			continue
		}
		if id, ok := firstID(entry, referenceIDKeys); ok {
			return id, true
		}
	}
	return "", false
}

// ExtractName returns the display name of rec
func ExtractName(rec *Object) (string, bool) {
	return firstText(rec, nameKeys)
}

// ExtractDescription returns the description of rec
func ExtractDescription(rec *Object) (string, bool) {
	return firstText(rec, descriptionKeys)
}

// ExtractTactics returns the tactic labels of rec: kill chain phase names
// followed by any tactic/phase keys, with duplicates removed.
func ExtractTactics(rec *Object) []string {
	var tactics []string

	if phases, ok := firstList(rec, phaseListKeys); ok {
		for _, p := range phases {
			entry, ok := p.AsObject()
			if !ok {
				continue
			}
			if name, ok := firstText(entry, phaseNameKeys); ok {
				tactics = append(tactics, name)
			}
		}
	}

	for _, key := range tacticKeys {
		v, ok := rec.Get(key)
		if !ok {
			continue
		}
		if s, ok := v.AsString(); ok {
			if s = strings.TrimSpace(s); s != "" {
				tactics = append(tactics, s)
			}
			continue
		}
		items, _ := v.AsArray()
		for _, item := range items {
			if s, ok := item.AsString(); ok {
				if s = strings.TrimSpace(s); s != "" {
					tactics = append(tactics, s)
				}
			}
		}
	}

	return dedupe(tactics)
}

func firstID(obj *Object, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if s, ok := v.AsString(); ok && IsID(s) {
			return NormalizeID(s), true
		}
	}
	return "", false
}

func firstText(obj *Object, keys []string) (string, bool) {
	for _, key := range keys {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if s, ok := v.AsString(); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s, true
			}
		}
	}
	return "", false
}

// firstList returns the first non-empty list found under keys
func firstList(obj *Object, keys []string) ([]Value, bool) {
	for _, key := range keys {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if items, ok := v.AsArray(); ok && len(items) > 0 {
			return items, true
		}
	}
	return nil, false
}

// dedupe removes repeated strings, keeping first occurrences in order
func dedupe(items []string) []string {
	result := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item] {
			continue
		}
		seen[item] = true
		result = append(result, item)
	}
	return result
}
