package money

// Winc is the internal arbitrary-precision credit unit balances and
// reservations are denominated in.
type Winc = Amount

// PaymentAmount is an arbitrary-precision integer in a fiat currency's
// minor unit (e.g. cents). It shares Amount's representation and
// arithmetic with Winc; the unit is a property of the call site.
type PaymentAmount = Amount
