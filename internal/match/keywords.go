package match

// DefaultKeywordPatterns is the keyword pattern dictionary shipped with the
// engine: canonical category name to lowercase trigger keywords. Callers
// merge custom entries over these; custom entries win on key collision.
func DefaultKeywordPatterns() map[string][]string {
	return map[string][]string{
		"Groceries": {
			"grocery", "supermarket", "kroger", "safeway", "aldi",
			"trader joe", "whole foods", "wegmans", "publix", "food lion",
			"market basket", "heb", "sprouts",
		},
		"Dining": {
			"restaurant", "cafe", "coffee", "pizza", "sushi", "burger",
			"taco", "grill", "diner", "bakery", "starbucks", "mcdonald",
			"chipotle", "doordash", "grubhub", "ubereats", "uber eats",
		},
		"Transportation": {
			"uber", "lyft", "taxi", "transit", "metro", "parking",
			"toll", "amtrak", "greyhound",
		},
		"Gas": {
			"shell", "chevron", "exxon", "mobil", "gas station", "fuel",
			"bp ", "sunoco", "valero", "texaco",
		},
		"Shopping": {
			"amazon", "walmart", "target", "costco", "ebay", "etsy",
			"best buy", "ikea", "home depot", "lowes", "macys", "nordstrom",
		},
		"Entertainment": {
			"netflix", "spotify", "hulu", "disney", "hbo", "cinema",
			"theater", "steam", "playstation", "xbox", "nintendo",
			"ticketmaster",
		},
		"Utilities": {
			"electric", "water", "sewer", "utility", "power", "energy",
			"gas bill", "waste management", "internet", "comcast",
			"xfinity", "verizon", "at&t", "t-mobile",
		},
		"Housing": {
			"rent", "mortgage", "landlord", "property management",
			"apartment", "hoa",
		},
		"Insurance": {
			"insurance", "geico", "allstate", "progressive", "state farm",
			"aetna", "cigna",
		},
		"Health": {
			"pharmacy", "cvs", "walgreens", "doctor", "dental", "clinic",
			"hospital", "medical", "optometry",
		},
		"Fitness": {
			"gym", "fitness", "yoga", "peloton", "planet fitness",
			"crossfit",
		},
		"Travel": {
			"airline", "airlines", "hotel", "airbnb", "expedia", "delta",
			"united", "southwest", "marriott", "hilton", "booking.com",
		},
		"Income": {
			"payroll", "direct dep", "salary", "paycheck", "employer",
		},
		"Fees": {
			"overdraft", "service fee", "atm fee", "late fee",
			"maintenance fee", "interest charge",
		},
		"Education": {
			"tuition", "university", "college", "udemy", "coursera",
			"textbook",
		},
		"Pets": {
			"petco", "petsmart", "veterinary", "chewy", "pet supplies",
		},
	}
}

// MergeKeywordPatterns merges custom entries over base. Custom entries win
// on key collision. Neither input map is mutated.
func MergeKeywordPatterns(base, custom map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(base)+len(custom))
	for name, keywords := range base {
		merged[name] = append([]string(nil), keywords...)
	}
	for name, keywords := range custom {
		merged[name] = append([]string(nil), keywords...)
	}
	return merged
}
