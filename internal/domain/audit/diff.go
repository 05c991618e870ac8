package audit

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Diff payloads take one of three shapes:
//
//	{"action":"create","new":{...}}
//	{"action":"delete","old":{...}}
//	{"action":"update","changes":{"field":{"old":x,"new":y}}}
//
// Changes are computed field by field over the entity's JSON form.

// Created builds the diff payload for a newly created entity.
func Created(entity interface{}) ([]byte, error) {
	snap, err := toFields(entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"action": ActionCreate,
		"new":    snap,
	})
}

// Deleted builds the diff payload for a deleted entity.
func Deleted(entity interface{}) ([]byte, error) {
	snap, err := toFields(entity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]interface{}{
		"action": ActionDelete,
		"old":    snap,
	})
}

// Changed compares the before and after JSON forms of an entity and builds
// an update diff payload. It returns nil when nothing changed, which
// callers treat as "record no audit row".
func Changed(action string, before, after interface{}) ([]byte, error) {
	oldFields, err := toFields(before)
	if err != nil {
		return nil, err
	}
	newFields, err := toFields(after)
	if err != nil {
		return nil, err
	}

	changes := make(map[string]interface{})
	for field, newVal := range newFields {
		oldVal, ok := oldFields[field]
		if ok && reflect.DeepEqual(oldVal, newVal) {
			continue
		}
		changes[field] = map[string]interface{}{"old": oldVal, "new": newVal}
	}
	for field, oldVal := range oldFields {
		if _, ok := newFields[field]; !ok {
			changes[field] = map[string]interface{}{"old": oldVal, "new": nil}
		}
	}

	if len(changes) == 0 {
		return nil, nil
	}
	return json.Marshal(map[string]interface{}{
		"action":  action,
		"changes": changes,
	})
}

func toFields(entity interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(entity)
	if err != nil {
		return nil, fmt.Errorf("marshaling entity: %w", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, fmt.Errorf("unmarshaling entity fields: %w", err)
	}
	return fields, nil
}
