package models

const (
	StatusWishlist  = "Wishlist"
	StatusApplied   = "Applied"
	StatusInterview = "Interview"
	StatusOffer     = "Offer"
	StatusRejected  = "Rejected"
)

// DefaultStatus is assigned to new applications without a status.
const DefaultStatus = StatusApplied

var StatusEmoji = map[string]string{
	StatusWishlist:  "⭐",
	StatusApplied:   "📨",
	StatusInterview: "🗣",
	StatusOffer:     "🎉",
	StatusRejected:  "❌",
}

// StatusTone maps a status to a badge tone (info, warning, success, danger).
var StatusTone = map[string]string{
	StatusWishlist:  "neutral",
	StatusApplied:   "info",
	StatusInterview: "warning",
	StatusOffer:     "success",
	StatusRejected:  "danger",
}

func StatusOptions() []string {
	return []string{
		StatusWishlist,
		StatusApplied,
		StatusInterview,
		StatusOffer,
		StatusRejected,
	}
}

func IsKnownStatus(status string) bool {
	_, ok := StatusTone[status]
	return ok
}

func GetStatusEmoji(status string) string {
	if e, ok := StatusEmoji[status]; ok {
		return e
	}
	return "•"
}
