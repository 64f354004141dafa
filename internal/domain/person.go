package domain

// RoleType distinguishes individual parties from businesses.
type RoleType string

const (
	RoleIndividual RoleType = "Individual"
	RoleBusiness   RoleType = "Business"
)

// IDType names the identity document presented by a party.
type IDType string

const (
	IDStateID        IDType = "State ID"
	IDPassport       IDType = "Passport"
	IDDriversLicense IDType = "Driver's License"
	IDEIN            IDType = "EIN"
	IDForeignID      IDType = "Foreign ID"
)

// IDTypes lists every accepted identity document type.
var IDTypes = []IDType{IDStateID, IDPassport, IDDriversLicense, IDEIN, IDForeignID}

// Valid reports whether t is one of IDTypes.
func (t IDType) Valid() bool {
	for _, known := range IDTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Person is the sender or receiver of a transaction. Phone2, BusinessName and
// EIN are empty when absent.
type Person struct {
	FullName     string
	Address      string
	Phone1       string
	Phone2       string
	ZipCode      string
	CityCode     string
	StateCode    string
	CountryCode  string
	RoleType     RoleType
	IDType       IDType
	IDNumber     string
	BusinessName string
	EIN          string
}
