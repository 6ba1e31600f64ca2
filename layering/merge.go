// Package layering folds ordered settings maps into a single map and provides
// the deep copy helpers used to keep composed data immutable.
package layering

import "reflect"

// MergeShallow folds layers ordered from weakest to strongest. Each key takes
// the value of the strongest layer that sets it; nested values are replaced
// whole, never merged. Values are deep copied so the result shares no state
// with the inputs. A nil result means no layer contributed any key.
func MergeShallow(layers ...map[string]any) map[string]any {
	size := 0
	for _, layer := range layers {
		size += len(layer)
	}
	if size == 0 {
		return nil
	}
	merged := make(map[string]any, size)
	for _, layer := range layers {
		for key, value := range layer {
			merged[key] = value
		}
	}
	for key, value := range merged {
		merged[key] = Clone(value)
	}
	return merged
}

// Winners reports, for every key, the index of the layer whose value wins in
// MergeShallow(layers...).
func Winners(layers ...map[string]any) map[string]int {
	winners := map[string]int{}
	for i, layer := range layers {
		for key := range layer {
			winners[key] = i
		}
	}
	return winners
}

// Clone returns a deep copy of value. Maps, slices, arrays, pointers and
// structs are copied recursively; unexported struct fields are left zero.
func Clone[T any](value T) T {
	cloned := cloneValue(reflect.ValueOf(value))
	if !cloned.IsValid() {
		var zero T
		return zero
	}
	out, ok := cloned.Interface().(T)
	if !ok {
		var zero T
		return zero
	}
	return out
}

func cloneValue(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}

	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.New(v.Type().Elem())
		clone.Elem().Set(cloneValue(v.Elem()))
		return clone
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		elem := cloneValue(v.Elem())
		if !elem.IsValid() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type()).Elem()
		out.Set(elem)
		return out
	case reflect.Struct:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			field := clone.Field(i)
			if !field.CanSet() {
				continue
			}
			field.Set(cloneValue(v.Field(i)))
		}
		return clone
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			value := cloneValue(iter.Value())
			if !value.IsValid() {
				value = reflect.Zero(v.Type().Elem())
			}
			clone.SetMapIndex(iter.Key(), value)
		}
		return clone
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		clone := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			value := cloneValue(v.Index(i))
			if !value.IsValid() {
				continue
			}
			clone.Index(i).Set(value)
		}
		return clone
	case reflect.Array:
		clone := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			clone.Index(i).Set(cloneValue(v.Index(i)))
		}
		return clone
	default:
		return v
	}
}
