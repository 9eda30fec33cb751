package docxtemplate

import "time"

// MissingVariableBehavior selects how the placeholder visitor reacts to an unresolved variable
// (§6).
type MissingVariableBehavior int

const (
	// LeaveUnchanged leaves the marker text in place and records a warning. This is the default.
	LeaveUnchanged MissingVariableBehavior = iota
	// ReplaceWithEmpty substitutes an empty string and counts the replacement.
	ReplaceWithEmpty
	// ThrowException fails the whole processing run.
	ThrowException
)

// UpdateFieldsOnOpen is a metadata hint for the container header (§6). The core engine does not
// interpret it, and Process does not pass it to the container package.
type UpdateFieldsOnOpen int

const (
	UpdateFieldsNever UpdateFieldsOnOpen = iota
	UpdateFieldsAlways
	UpdateFieldsAuto
)

// BooleanFormatter names the two locale-independent strings a boolean format specifier maps
// true/false onto (§4.8.2).
type BooleanFormatter struct {
	True  string
	False string
}

// DefaultBooleanFormatters is the registry named in §4.8.2.
func DefaultBooleanFormatters() map[string]BooleanFormatter {
	return map[string]BooleanFormatter{
		"checkbox":  {True: "☒", False: "☐"},
		"yesno":     {True: "Yes", False: "No"},
		"checkmark": {True: "✓", False: ""},
		"truefalse": {True: "True", False: "False"},
		"onoff":     {True: "On", False: "Off"},
		"enabled":   {True: "Enabled", False: "Disabled"},
		"active":    {True: "Active", False: "Inactive"},
	}
}

// ProcessingOptions configures a single Process call (§6). Names are fixed by the specification;
// defaults are produced by DefaultOptions.
type ProcessingOptions struct {
	MissingVariableBehavior  MissingVariableBehavior
	Culture                  string
	EnableNewlineSupport     bool
	BooleanFormatterRegistry map[string]BooleanFormatter
	UpdateFieldsOnOpen       UpdateFieldsOnOpen

	// Now is a clock seam, defaulting to time.Now. No formatting path reads it: date
	// placeholders format the Date value they resolve to.
	Now func() time.Time
}

// DefaultOptions returns the specification's documented defaults.
func DefaultOptions() ProcessingOptions {
	return ProcessingOptions{
		MissingVariableBehavior:  LeaveUnchanged,
		Culture:                  "en-US",
		EnableNewlineSupport:     true,
		BooleanFormatterRegistry: DefaultBooleanFormatters(),
		UpdateFieldsOnOpen:       UpdateFieldsAuto,
		Now:                      time.Now,
	}
}

func (o ProcessingOptions) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}
