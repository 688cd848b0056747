package config

// Class is an operational category a process can be classified into
// (spec §1, §3). The set is fixed by policy configuration, not hardcoded
// beyond these five defaults — Priors.Classes and Policy.DecisionTable both
// key off Class, so a deployment could in principle add more, but every
// shipped default config uses exactly these.
type Class string

const (
	ClassRunaway   Class = "runaway"
	ClassStuck     Class = "stuck"
	ClassNormal    Class = "normal"
	ClassProtected Class = "protected"
	ClassUnknown   Class = "unknown"
)

// DefaultClasses is the five-class default set; the config tests check
// that DefaultPriors and DefaultPolicy declare each of these classes.
var DefaultClasses = []Class{ClassRunaway, ClassStuck, ClassNormal, ClassProtected, ClassUnknown}
