package payload

// Extract walks v depth-first in document order and returns the first value
// found for each wanted key. A matched member is not descended into.
func Extract(v Value, keys []string) map[string]Value {
	wanted := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		wanted[k] = struct{}{}
	}

	found := make(map[string]Value, len(keys))
	extract(v, wanted, found)
	return found
}

func extract(v Value, wanted map[string]struct{}, found map[string]Value) {
	if len(found) == len(wanted) {
		return
	}

	switch t := v.(type) {
	case Object:
		for _, m := range t {
			if _, ok := wanted[m.Key]; ok {
				if _, done := found[m.Key]; !done {
					found[m.Key] = m.Value
				}
				continue
			}
			extract(m.Value, wanted, found)
		}
	case Array:
		for _, child := range t {
			extract(child, wanted, found)
		}
	case Scalar:
	}
}

// ExtractNative is Extract with the located values converted by Native.
func ExtractNative(v Value, keys []string) map[string]any {
	located := Extract(v, keys)
	out := make(map[string]any, len(located))
	for k, val := range located {
		out[k] = Native(val)
	}
	return out
}

// Items splits an enveloped notification (notificationItems[].NotificationRequestItem)
// into its items. Envelope-level members that are not present in an item
// (such as live) are appended to that item so extraction still finds them.
// A payload without the envelope is returned as the only item.
func Items(v Value) []Value {
	root, ok := v.(Object)
	if !ok {
		return []Value{v}
	}
	list, ok := root.Get("notificationItems")
	if !ok {
		return []Value{v}
	}
	arr, ok := list.(Array)
	if !ok {
		return []Value{v}
	}

	var shared Object
	for _, m := range root {
		if m.Key != "notificationItems" {
			shared = append(shared, m)
		}
	}

	items := make([]Value, 0, len(arr))
	for _, entry := range arr {
		wrapper, ok := entry.(Object)
		if !ok {
			continue
		}
		inner, ok := wrapper.Get("NotificationRequestItem")
		if !ok {
			continue
		}
		item, ok := inner.(Object)
		if !ok {
			continue
		}
		merged := append(Object{}, item...)
		for _, m := range shared {
			if _, exists := item.Get(m.Key); !exists {
				merged = append(merged, m)
			}
		}
		items = append(items, merged)
	}
	return items
}
