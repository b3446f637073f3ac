package record

// MaterializeTemplate applies overrides on top of a template record
// via deep merge, the first step of `new`'s pipeline (template ->
// deep_merge(template, overrides) -> editor/TSV overrides -> name ->
// path). Reserved keys are expected to already have been stripped from
// overrides by the caller before this point; MaterializeTemplate does
// not special-case them.
func MaterializeTemplate(template, overrides *Record) *Record {
	return DeepMerge(template, overrides)
}

// WithoutKeys returns a clone of r with the given keys removed,
// used to strip reserved keys before merging caller-supplied values
// into a record destined for disk.
func (r *Record) WithoutKeys(keys ...string) *Record {
	clone := r.Clone()
	for _, k := range keys {
		clone.Delete(k)
	}
	return clone
}
