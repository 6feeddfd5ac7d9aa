package analyzer

// defaultDisposableDomains lists common disposable/temporary email
// providers. It is intentionally small: the default analyzer favors
// being a usable, swappable seam over being a comprehensive blocklist.
var defaultDisposableDomains = []string{
	"mailinator.com",
	"10minutemail.com",
	"guerrillamail.com",
	"tempmail.com",
	"temp-mail.org",
	"yopmail.com",
	"throwawaymail.com",
	"trashmail.com",
	"getnada.com",
	"sharklasers.com",
}

// defaultFreeProviders lists common free consumer email providers,
// used when a caller blocks on EmailReasonFreeProvider to require a
// corporate domain.
var defaultFreeProviders = []string{
	"gmail.com",
	"yahoo.com",
	"hotmail.com",
	"outlook.com",
	"aol.com",
	"icloud.com",
	"protonmail.com",
	"gmx.com",
	"mail.com",
	"live.com",
}
