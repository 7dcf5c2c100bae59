package pricing

import "strings"

// OfficialRetailer is always priced at reference with zero discount.
const OfficialRetailer = "lego"

// Retailers is the closed retailer enumeration. Iteration order is fixed;
// adding a retailer means adding an id here plus a URL template below.
var Retailers = []string{
	OfficialRetailer,
	"amazon",
	"walmart",
	"target",
	"bestbuy",
	"kohls",
	"macys",
	"costco",
	"samsclub",
	"ebay",
	"barnesnoble",
	"gamestop",
	"zavvi",
	"shopdisney",
	"bricklink",
	"brickowl",
}

// urlTemplates hold per-retailer outbound search URLs; {id} is replaced with
// the set id.
var urlTemplates = map[string]string{
	OfficialRetailer: "https://www.lego.com/en-us/search?q={id}",
	"amazon":         "https://www.amazon.com/s?k=LEGO+{id}",
	"walmart":        "https://www.walmart.com/search?q=LEGO+{id}",
	"target":         "https://www.target.com/s?searchTerm=LEGO+{id}",
	"bestbuy":        "https://www.bestbuy.com/site/searchpage.jsp?st=LEGO+{id}",
	"kohls":          "https://www.kohls.com/search.jsp?search=LEGO+{id}",
	"macys":          "https://www.macys.com/shop/search?keyword=LEGO+{id}",
	"costco":         "https://www.costco.com/s?dept=All&keyword=LEGO+{id}",
	"samsclub":       "https://www.samsclub.com/s/LEGO+{id}",
	"ebay":           "https://www.ebay.com/sch/i.html?_nkw=LEGO+{id}",
	"barnesnoble":    "https://www.barnesandnoble.com/s/LEGO+{id}",
	"gamestop":       "https://www.gamestop.com/search/?q=LEGO+{id}",
	"zavvi":          "https://www.zavvi.com/search?q=LEGO+{id}",
	"shopdisney":     "https://www.shopdisney.com/search?q=LEGO+{id}",
	"bricklink":      "https://www.bricklink.com/v2/search.page?q={id}",
	"brickowl":       "https://www.brickowl.com/search/catalog?query={id}",
}

// RetailerURL builds the outbound URL for a retailer and set id. Unknown
// retailer ids yield an empty URL.
func RetailerURL(retailer, setID string) string {
	tpl, ok := urlTemplates[retailer]
	if !ok {
		return ""
	}
	return strings.ReplaceAll(tpl, "{id}", setID)
}
