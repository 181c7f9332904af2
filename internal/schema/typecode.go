package schema

// Type codes as reported by JDBC drivers (java.sql.Types). Generated code downstream keys on
// these exact numbers.
const (
	TypeBit                   = -7
	TypeTinyInt               = -6
	TypeSmallInt              = 5
	TypeInteger               = 4
	TypeBigInt                = -5
	TypeFloat                 = 6
	TypeReal                  = 7
	TypeDouble                = 8
	TypeNumeric               = 2
	TypeDecimal               = 3
	TypeChar                  = 1
	TypeVarchar               = 12
	TypeLongVarchar           = -1
	TypeDate                  = 91
	TypeTime                  = 92
	TypeTimestamp             = 93
	TypeBinary                = -2
	TypeVarBinary             = -3
	TypeLongVarBinary         = -4
	TypeNull                  = 0
	TypeOther                 = 1111
	TypeJavaObject            = 2000
	TypeDistinct              = 2001
	TypeStruct                = 2002
	TypeArray                 = 2003
	TypeBlob                  = 2004
	TypeClob                  = 2005
	TypeRef                   = 2006
	TypeDatalink              = 70
	TypeBoolean               = 16
	TypeRowId                 = -8
	TypeNChar                 = -15
	TypeNVarchar              = -9
	TypeLongNVarchar          = -16
	TypeNClob                 = 2011
	TypeSQLXML                = 2009
	TypeRefCursor             = 2012
	TypeTimeWithTimezone      = 2013
	TypeTimestampWithTimezone = 2014

	// TypeOracleOpaque is the proprietary code Oracle drivers report for XMLTYPE columns.
	TypeOracleOpaque = 2007
)

// IsNumericType reports whether values of the type carry precision, radix and fractional digits.
func IsNumericType(code int) bool {
	switch code {
	case TypeTinyInt, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeFloat, TypeReal, TypeDouble, TypeDecimal, TypeNumeric:
		return true
	}
	return false
}

// IsCharType reports whether values of the type carry a length.
func IsCharType(code int) bool {
	switch code {
	case TypeChar, TypeVarchar, TypeLongVarchar:
		return true
	}
	return false
}
