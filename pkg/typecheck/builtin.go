package typecheck

// BuiltinTypes is a fixed TypeCatalog covering the scalar types relcore's
// own bootstrap catalogs and CLI use, keyed by the same numeric ids
// types.SystemAttributes already assumes (26=oid, 27=tid, 28=xid, 29=cid).
// A real installation would source this from component B's pg_type bucket
// instead; this map exists so relbuilder has somewhere to resolve
// user-supplied column types without a running catalog of type rows.
var BuiltinTypes = StaticTypeCatalog{
	16: {ID: 16, Class: ClassBase},                   // bool
	20: {ID: 20, Class: ClassBase},                   // int8
	21: {ID: 21, Class: ClassBase},                   // int2
	23: {ID: 23, Class: ClassBase},                   // int4
	25: {ID: 25, Class: ClassBase, Collatable: true},  // text
	26: {ID: 26, Class: ClassBase},                   // oid
	27: {ID: 27, Class: ClassBase},                   // tid
	28: {ID: 28, Class: ClassBase},                   // xid
	29: {ID: 29, Class: ClassBase},                   // cid
	700: {ID: 700, Class: ClassBase},                 // float4
	701: {ID: 701, Class: ClassBase},                 // float8
	1082: {ID: 1082, Class: ClassBase},                // date
	1114: {ID: 1114, Class: ClassBase},                // timestamp
	1700: {ID: 1700, Class: ClassBase},                // numeric
	2249: {ID: 2249, Class: ClassPseudo, Pseudo: PseudoRecord},
	2277: {ID: 2277, Class: ClassPseudo, Pseudo: PseudoAnyArray},
}

// StaticTypeCatalog is a TypeCatalog backed by a fixed map.
type StaticTypeCatalog map[uint32]TypeInfo

// Lookup implements TypeCatalog.
func (s StaticTypeCatalog) Lookup(id uint32) (TypeInfo, bool) {
	info, ok := s[id]
	return info, ok
}
