package declaration

// Diff computes the changed-field map recorded with an audit entry: for a
// fresh record (prev nil) every non-empty field of next, otherwise every
// field whose value differs between prev and next, mapped to the new value.
// An empty map from two equal snapshots is a valid result.
func Diff(prev *Declaration, next Declaration) map[FieldKey]string {
	changed := make(map[FieldKey]string)

	if prev == nil {
		for _, f := range next.fieldValues() {
			if f.value != "" {
				changed[f.key] = f.value
			}
		}
		return changed
	}

	prevValues := prev.fieldValues()
	for i, f := range next.fieldValues() {
		if f.value != prevValues[i].value {
			changed[f.key] = f.value
		}
	}
	return changed
}

// ActionFor classifies a transition for the audit trail. The sign action is
// reserved for the update that first attaches a signature; every later
// finalization of an already signed record is a plain update.
func ActionFor(prev *Declaration, next Declaration) Action {
	if prev == nil {
		return ActionCreate
	}
	if prev.SignatureURL == "" && next.SignatureURL != "" {
		return ActionSign
	}
	return ActionUpdate
}
