package normalize

// stateAbbrev maps lowercase state, district, territory, and Canadian
// province names to their two-letter codes.
var stateAbbrev = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",

	"district of columbia": "DC", "washington dc": "DC", "washington d.c.": "DC",
	"puerto rico": "PR", "virgin islands": "VI", "guam": "GU",

	"ontario": "ON", "quebec": "QC", "british columbia": "BC", "alberta": "AB",
	"manitoba": "MB", "saskatchewan": "SK", "nova scotia": "NS",
	"new brunswick": "NB", "newfoundland": "NL", "prince edward island": "PE",
}

// usStateCodes is the set of valid US two-letter codes (states, DC,
// territories).
var usStateCodes = map[string]bool{
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
	"DC": true, "PR": true, "VI": true, "GU": true,
}

// caProvinceCodes is the set of Canadian province codes.
var caProvinceCodes = map[string]bool{
	"ON": true, "QC": true, "BC": true, "AB": true, "MB": true,
	"SK": true, "NS": true, "NB": true, "NL": true, "PE": true,
}

// cafeStateCodes maps CallForEntry's numeric state codes to two-letter
// codes. The table is alphabetical; code 19 repeats Louisiana on the
// platform itself, and 52 marks international listings.
var cafeStateCodes = map[string]string{
	"1": "AL", "2": "AK", "3": "AZ", "4": "AR", "5": "CA", "6": "CO",
	"7": "CT", "8": "DE", "9": "FL", "10": "GA", "11": "HI", "12": "ID",
	"13": "IL", "14": "IN", "15": "IA", "16": "KS", "17": "KY", "18": "LA",
	"19": "LA", "20": "ME", "21": "MD", "22": "MA", "23": "MI", "24": "MN",
	"25": "MS", "26": "MO", "27": "MT", "28": "NE", "29": "NV", "30": "NH",
	"31": "NJ", "32": "NM", "33": "NY", "34": "NC", "35": "ND", "36": "OH",
	"37": "OK", "38": "OR", "39": "PA", "40": "RI", "41": "SC", "42": "SD",
	"43": "TN", "44": "TX", "45": "UT", "46": "VT", "47": "VA", "48": "WA",
	"49": "WV", "50": "WI", "51": "WY", "52": "INTL",
}
