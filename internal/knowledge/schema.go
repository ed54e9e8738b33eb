package knowledge

// envelopeKeys are the list keys recognised before the generic scan, in priority order
var envelopeKeys = []string{"techniques", "objects"}

// LoadRecords locates the technique-like records in a decoded document.
//
// Shapes are tried in order: a bare list, a "techniques" list, an "objects"
// list (STIX bundle), then the first member holding a non-empty list whose
// first element is an object. Only object
// elements are kept; deciding relevance is left to the extractors.
func LoadRecords(doc Value) ([]*Object, error) {
	if items, ok := doc.AsArray(); ok {
		return objectsOf(items), nil
	}

	obj, ok := doc.AsObject()
	if !ok {
		return nil, &SchemaError{}
	}

	for _, key := range envelopeKeys {
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		if items, ok := v.AsArray(); ok {
			return objectsOf(items), nil
		}
	}

	for _, m := range obj.Members() {
		items, ok := m.Value.AsArray()
		if !ok || len(items) == 0 {
			continue
		}
		if items[0].Kind() == KindObject {
			return objectsOf(items), nil
		}
	}

	return nil, &SchemaError{}
}

func objectsOf(items []Value) []*Object {
	records := make([]*Object, 0, len(items))
	for _, item := range items {
		if obj, ok := item.AsObject(); ok {
			records = append(records, obj)
		}
	}
	return records
}
