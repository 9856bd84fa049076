package constants

// SlotStatus is the availability of an open slot, ordered by decreasing
// availability: available > few > full. Closed is not bookable.
type SlotStatus string

// Stable values (store these exact strings in DB).
const (
	SlotAvailable SlotStatus = "available"
	SlotFew       SlotStatus = "few"
	SlotFull      SlotStatus = "full"
	SlotClosed    SlotStatus = "closed"
)

var allStatuses = []SlotStatus{SlotAvailable, SlotFew, SlotFull, SlotClosed}

// Statuses returns the status enum as strings.
func Statuses() []string {
	out := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		out[i] = string(s)
	}
	return out
}

// ValidStatus reports whether s is one of the stored status values.
func ValidStatus(s string) bool {
	for _, v := range allStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// ReceptionType is the booking mechanism of a slot.
type ReceptionType string

const (
	ReceptionSameDay     ReceptionType = "same_day"    // walk-in on the day
	ReceptionReservation ReceptionType = "reservation" // advance booking
	ReceptionLottery     ReceptionType = "lottery"
)

var allReceptionTypes = []ReceptionType{ReceptionSameDay, ReceptionReservation, ReceptionLottery}

func ReceptionTypes() []string {
	out := make([]string, len(allReceptionTypes))
	for i, r := range allReceptionTypes {
		out[i] = string(r)
	}
	return out
}

func ValidReceptionType(s string) bool {
	for _, v := range allReceptionTypes {
		if string(v) == s {
			return true
		}
	}
	return false
}
