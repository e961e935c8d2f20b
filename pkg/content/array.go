package content

// AddItem returns a copy of list with one element appended. The new element
// is a deep copy of the first element when that is an object or array, and
// an empty string otherwise, including for an empty list. A non-array list
// is treated as empty.
func AddItem(list Node) Node {
	items := list.Items()
	template := String("")
	if len(items) > 0 && (items[0].IsObject() || items[0].IsArray()) {
		template = items[0].Clone()
	}
	out := make([]Node, 0, len(items)+1)
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return Node{t: TypeArray, arr: append(out, template)}
}

// RemoveItem returns a copy of list without the element at index. An out of
// range index returns an unchanged copy.
func RemoveItem(list Node, index int) Node {
	items := list.Items()
	out := make([]Node, 0, len(items))
	for i, it := range items {
		if i == index {
			continue
		}
		out = append(out, it.Clone())
	}
	return Node{t: TypeArray, arr: out}
}
