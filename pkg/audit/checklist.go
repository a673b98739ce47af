package audit

var defaultChecklist = []ChecklistItem{
	{ID: "gsc-verified", Label: "Google Search Console verified", Category: CategoryTechnical},
	{ID: "sitemap-submitted", Label: "XML Sitemap submitted to GSC", Category: CategoryTechnical},
	{ID: "robots-txt", Label: "robots.txt allows Googlebot", Category: CategoryTechnical},
	{ID: "ssl-https", Label: "Site uses HTTPS", Category: CategoryTechnical},
	{ID: "mobile-friendly", Label: "Mobile-friendly design", Category: CategoryPerformance},
	{ID: "page-speed", Label: "Page loads under 3 seconds", Category: CategoryPerformance},
	{ID: "title-tags", Label: "Unique title tags on all pages", Category: CategoryContent},
	{ID: "meta-descriptions", Label: "Meta descriptions on all pages", Category: CategoryContent},
	{ID: "heading-structure", Label: "Proper H1-H6 heading structure", Category: CategoryContent},
	{ID: "gbp-claimed", Label: "Google Business Profile claimed and optimized", Category: CategoryLocal},
	{ID: "nap-consistent", Label: "NAP (Name, Address, Phone) consistent everywhere", Category: CategoryLocal},
	{ID: "local-schema", Label: "LocalBusiness schema markup added", Category: CategoryLocal},
}

// DefaultChecklist returns a fresh copy of the onboarding checklist. Items
// are never marked completed by the audit itself.
func DefaultChecklist() []ChecklistItem {
	return append([]ChecklistItem(nil), defaultChecklist...)
}
