package rdb

// Table names and their literal fallback tags.
const (
	TableGeometry     = "EmecGeometry"
	TableWheel        = "EmecWheelParameters"
	TableMagicNumbers = "EmecMagicNumbers"
	TableParams       = "EmecParams"

	FallbackGeometry     = "EmecGeometry-00"
	FallbackWheel        = "EmecWheelParameters-00"
	FallbackMagicNumbers = "EMECMagicNumbers-00"
	FallbackParams       = "EMECParams-00"

	// BuiltinTag is the primary tag under which Builtin also answers.
	BuiltinTag = "EMEC-builtin"
)

// Builtin returns a memory source populated with the nominal EMEC
// parameters. Lengths are stored in the units the tables are defined in:
// cm for EmecGeometry, mm for EmecMagicNumbers.
func Builtin() *MemorySource {
	m := NewMemorySource()
	geometry := Rec(Fields{
		"Z0":     368.95,
		"Z1":     369.1,
		"DCF":    368.9,
		"DCRACK": 0.15,
		"RLIMIT": 203.4,
		"ZSHIFT": 4.0,
	})
	inner := Rec(Fields{"NABS": 256, "NACC": 6, "ETAINT": 3.2, "ETAEXT": 2.5})
	outer := Rec(Fields{"NABS": 768, "NACC": 9, "ETAINT": 2.5, "ETAEXT": 1.375})
	magic := Rec(Fields{
		"ACTIVELENGTH":         510.0,
		"STRAIGHTSTARTSECTION": 2.0,
		"REFTOACTIVE":          11.0,
	})
	params := Rec(Fields{
		"PHIROTATION":         "",
		"SAGGING":             "off",
		"EMECINNERSLANTPARAM": "default",
		"EMECOUTERSLANTPARAM": "default",
	})

	m.Put(TableGeometry, FallbackGeometry, "", geometry)
	m.Put(TableGeometry, BuiltinTag, "", geometry)
	m.Put(TableWheel, FallbackWheel, "", inner, outer)
	m.Put(TableWheel, BuiltinTag, "", inner, outer)
	m.Put(TableMagicNumbers, FallbackMagicNumbers, "", magic)
	m.Put(TableMagicNumbers, BuiltinTag, "", magic)
	m.Put(TableParams, FallbackParams, "", params)
	m.Put(TableParams, BuiltinTag, "", params)
	return m
}
