// Package customer maps national codes to internal customer ids and performs
// the one-time registration of a customer with the remote identity registry.
package customer

import (
	"time"

	id "kyc/pkg/domain"
)

// Customer is identified by national code; ID is the surrogate key other
// records reference. One customer may run many processes over time.
type Customer struct {
	ID           id.CustomerID   `json:"id"`
	NationalCode id.NationalCode `json:"national_code"`
	CreatedAt    time.Time       `json:"created_at"`
}
