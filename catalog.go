package flatconf

import "sort"

// KeyDescriptor describes one setting key and the layers that set it.
type KeyDescriptor struct {
	Key       string   `json:"key"`
	Namespace string   `json:"namespace,omitempty"`
	Layers    []string `json:"layers"`
}

// Catalog lists every setting key of the composition sorted by key. Layers are
// listed in rank order.
func (c *Composition) Catalog() []KeyDescriptor {
	if c == nil {
		return nil
	}
	index := map[string]*KeyDescriptor{}
	for _, layer := range c.layers {
		for key := range layer.Settings {
			desc, ok := index[key]
			if !ok {
				desc = &KeyDescriptor{Key: key, Namespace: Namespace(key)}
				index[key] = desc
			}
			desc.Layers = append(desc.Layers, layer.ID)
		}
	}
	out := make([]KeyDescriptor, 0, len(index))
	for _, desc := range index {
		out = append(out, *desc)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Key < out[j].Key
	})
	return out
}

// Namespaces returns the distinct plugin prefixes used by setting keys,
// sorted. Core keys contribute no namespace.
func (c *Composition) Namespaces() []string {
	seen := map[string]struct{}{}
	for _, desc := range c.Catalog() {
		if desc.Namespace == "" {
			continue
		}
		seen[desc.Namespace] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for ns := range seen {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// GlobalIgnoreLayers returns the IDs of the global-ignore layers in rank order.
func (c *Composition) GlobalIgnoreLayers() []string {
	if c == nil {
		return nil
	}
	return copyStrings(c.globalLayers)
}
