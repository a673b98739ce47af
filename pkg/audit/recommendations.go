package audit

import "sort"

// Template is the static content of a recommendation for one rule.
type Template struct {
	Title       string
	Description string
	ActionItems []string
}

// Recommender turns issues into ranked recommendations using a rule-id keyed
// template table.
type Recommender struct {
	Templates map[string]Template
	// OnSkip, if set, is called for each rule ID that has no template.
	OnSkip func(ruleID string)
}

// NewRecommender returns a Recommender over the given template table.
func NewRecommender(templates map[string]Template) *Recommender {
	return &Recommender{Templates: templates}
}

// Generate orders issues by severity (stable), keeps the first issue per
// rule, and emits one recommendation per rule that has a template.
// Priorities are contiguous from 1.
func (r *Recommender) Generate(issues []Issue) []Recommendation {
	sorted := make([]Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	recs := []Recommendation{}
	seen := make(map[string]bool)
	for _, issue := range sorted {
		if seen[issue.RuleID] {
			continue
		}
		seen[issue.RuleID] = true

		tmpl, ok := r.Templates[issue.RuleID]
		if !ok {
			if r.OnSkip != nil {
				r.OnSkip(issue.RuleID)
			}
			continue
		}

		recs = append(recs, Recommendation{
			Priority:      len(recs) + 1,
			Title:         tmpl.Title,
			Description:   tmpl.Description,
			ActionItems:   append([]string(nil), tmpl.ActionItems...),
			RelatedIssues: []string{issue.RuleID},
		})
	}
	return recs
}

// GenerateRecommendations ranks metric-rule issues.
func GenerateRecommendations(issues []Issue) []Recommendation {
	return NewRecommender(MetricTemplates).Generate(issues)
}

// GenerateOnPageRecommendations ranks on-page issues.
func GenerateOnPageRecommendations(issues []Issue) []Recommendation {
	return NewRecommender(OnPageTemplates).Generate(issues)
}

// TopN returns at most n recommendations.
func TopN(recs []Recommendation, n int) []Recommendation {
	if n < 0 || len(recs) <= n {
		return recs
	}
	return recs[:n]
}

// Reprioritize renumbers priorities 1..n in slice order.
func Reprioritize(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	for i, rec := range recs {
		rec.Priority = i + 1
		out[i] = rec
	}
	return out
}

// MetricTemplates maps metric rule IDs to recommendation content.
var MetricTemplates = map[string]Template{
	RuleMobileTrafficLow: {
		Title:       "Optimize for Mobile",
		Description: "Your mobile traffic is below average. Google uses mobile-first indexing, meaning mobile performance directly impacts rankings.",
		ActionItems: []string{
			"Test your site with Google's Mobile-Friendly Test tool",
			"Ensure all pages use responsive design",
			"Optimize tap targets (buttons, links) for mobile screens",
			"Reduce page weight for faster mobile loading",
			"Submit a mobile sitemap to Google Search Console",
		},
	},
	RuleSlowLCP: {
		Title:       "Improve Page Load Speed",
		Description: "Your page takes too long to display its main content. This hurts both rankings and user experience.",
		ActionItems: []string{
			"Compress and serve images in WebP/AVIF format",
			"Enable server-side caching and CDN",
			"Minimize render-blocking CSS and JavaScript",
			"Preload critical resources (fonts, hero images)",
			"Consider lazy loading for below-the-fold images",
		},
	},
	RulePoorCLS: {
		Title:       "Fix Layout Shifts",
		Description: "Your page layout moves while loading, which frustrates users and hurts Core Web Vitals scores.",
		ActionItems: []string{
			"Set explicit width/height on all images and videos",
			"Avoid dynamically injected content above the fold",
			"Use CSS font-display: swap for web fonts",
			"Reserve space for ads and embeds with CSS aspect-ratio",
		},
	},
	RuleSlowFID: {
		Title:       "Improve Interactivity",
		Description: "Your page is slow to respond to user input. This can increase bounce rates.",
		ActionItems: []string{
			"Break up long JavaScript tasks into smaller chunks",
			"Defer non-critical third-party scripts",
			"Use web workers for heavy computations",
			"Minimize main thread work during page load",
		},
	},
	RuleLowCTR: {
		Title:       "Improve Click-Through Rate",
		Description: "Users see your site in search results but don't click. Better titles and descriptions can fix this.",
		ActionItems: []string{
			"Rewrite page titles to include local keywords (city, neighborhood)",
			"Write compelling meta descriptions with calls to action",
			"Add structured data (LocalBusiness schema) for rich snippets",
			"Use numbers and power words in titles (e.g., 'Top 5', 'Best')",
			"Ensure your Google Business Profile is complete and up-to-date",
		},
	},
	RuleHighBounceRate: {
		Title:       "Reduce Bounce Rate",
		Description: "Visitors are leaving your site quickly. Improve content relevance and user experience.",
		ActionItems: []string{
			"Ensure page content matches the search query intent",
			"Add clear calls to action above the fold",
			"Improve internal linking to guide users to related content",
			"Speed up page loading (high load time increases bounces)",
			"Add contact information prominently on every page",
		},
	},
	RulePoorPosition: {
		Title:       "Improve Search Rankings",
		Description: "Your average search position is too low for meaningful traffic. Focus on local SEO signals.",
		ActionItems: []string{
			"Create location-specific landing pages",
			"Build local citations (directories, chamber of commerce)",
			"Get reviews on Google Business Profile",
			"Add internal links between related content",
			"Update and expand existing content regularly",
		},
	},
	RuleLowSessions: {
		Title:       "Increase Website Traffic",
		Description: "Your site has very few visitors. A combination of SEO and local marketing can help.",
		ActionItems: []string{
			"Claim and optimize your Google Business Profile",
			"Create a blog with locally relevant content",
			"Add your business to local directories",
			"Share content on social media consistently",
			"Consider Google Ads for immediate local visibility",
		},
	},
	RuleLowImpressions: {
		Title:       "Increase Search Visibility",
		Description: "Your site appears in very few searches. You need to target more keywords.",
		ActionItems: []string{
			"Research local keywords with Google Keyword Planner",
			"Create content targeting local service queries",
			"Submit a complete XML sitemap to Search Console",
			"Ensure all pages have unique, descriptive title tags",
			"Add location-specific content to your main pages",
		},
	},
	RuleIndexingLow: {
		Title:       "Get More Pages Indexed",
		Description: "Google has indexed very few of your pages. More indexed pages means more potential search traffic.",
		ActionItems: []string{
			"Submit an XML sitemap via Google Search Console",
			"Check robots.txt for accidental blocking",
			"Ensure all important pages are linked from your main navigation",
			"Add a blog or resource section with regular content",
			"Fix any crawl errors shown in Search Console",
		},
	},
	RuleNoClicks: {
		Title:       "Fix Zero-Click Issue",
		Description: "Your site is getting no clicks from Google Search. This needs immediate attention.",
		ActionItems: []string{
			"Verify your site is properly indexed in Google Search Console",
			"Check for manual actions or penalties in Search Console",
			"Ensure your robots.txt isn't blocking Googlebot",
			"Submit your sitemap and request indexing for key pages",
			"Review and fix any critical crawl errors",
		},
	},
	RuleFewQueries: {
		Title:       "Expand Keyword Coverage",
		Description: "Your site ranks for very few search queries. Broader keyword coverage drives more traffic.",
		ActionItems: []string{
			"Research competitor keywords with free tools (Ubersuggest, AnswerThePublic)",
			"Create FAQ pages targeting common customer questions",
			"Add service-specific pages for each offering",
			"Write blog posts targeting long-tail local keywords",
			"Use variations and synonyms of your main keywords",
		},
	},
}

// OnPageTemplates maps on-page rule IDs to recommendation content.
var OnPageTemplates = map[string]Template{
	RuleMissingTitle: {
		Title:       "Add a Page Title",
		Description: "Every page needs a unique, descriptive title tag. It's the most important on-page SEO element.",
		ActionItems: []string{
			"Add a <title> tag in your page's <head> section",
			"Include your primary keyword near the beginning",
			"Keep it between 20-60 characters",
			"Make it compelling to encourage clicks from search results",
		},
	},
	RuleTitleTooLong: {
		Title:       "Shorten Your Title Tag",
		Description: "Your title is too long and will be truncated in search results, reducing its effectiveness.",
		ActionItems: []string{
			"Trim your title to 60 characters or fewer",
			"Keep the most important keywords at the beginning",
			"Remove filler words and unnecessary branding",
			"Test how it appears with a SERP preview tool",
		},
	},
	RuleTitleTooShort: {
		Title:       "Expand Your Title Tag",
		Description: "Your title is too short to be effective. You're missing an opportunity to include relevant keywords.",
		ActionItems: []string{
			"Expand your title to at least 20 characters",
			"Include your primary keyword and location",
			"Add a compelling value proposition",
			"Consider the format: Primary Keyword - Brand Name",
		},
	},
	RuleMissingMetaDescription: {
		Title:       "Add a Meta Description",
		Description: "Without a meta description, Google generates one automatically, which may not represent your page well.",
		ActionItems: []string{
			"Add a <meta name='description'> tag in your <head>",
			"Write 70-160 characters summarizing the page",
			"Include your target keyword naturally",
			"Add a call to action (e.g., 'Learn more', 'Get a quote')",
			"Make it unique for every page",
		},
	},
	RuleMetaDescriptionLong: {
		Title:       "Shorten Your Meta Description",
		Description: "Your meta description is too long and will be cut off in search results.",
		ActionItems: []string{
			"Trim it to 160 characters or fewer",
			"Put the most important information first",
			"Include your primary keyword early on",
			"End with a clear call to action",
		},
	},
	RuleMetaDescriptionShort: {
		Title:       "Expand Your Meta Description",
		Description: "Your meta description is too short to be compelling in search results.",
		ActionItems: []string{
			"Expand it to at least 70 characters",
			"Describe what the user will find on the page",
			"Include relevant keywords naturally",
			"Add a compelling reason to click",
		},
	},
	RuleMissingH1: {
		Title:       "Add an H1 Heading",
		Description: "Your page is missing an H1 heading, which tells search engines the main topic of the page.",
		ActionItems: []string{
			"Add exactly one <h1> tag to your page",
			"Include your primary keyword in the H1",
			"Make it descriptive and match user search intent",
			"Ensure it's visible and prominent on the page",
		},
	},
	RuleMultipleH1: {
		Title:       "Use Only One H1 Heading",
		Description: "Multiple H1 tags can confuse search engines about the page's main topic.",
		ActionItems: []string{
			"Keep only the most relevant H1 tag",
			"Change other H1 tags to H2 or H3",
			"Ensure heading hierarchy is logical (H1 → H2 → H3)",
			"Each H1 should clearly describe the page topic",
		},
	},
	RuleImagesWithoutAlt: {
		Title:       "Add Alt Text to Images",
		Description: "Images without alt text miss SEO opportunities and hurt accessibility.",
		ActionItems: []string{
			"Add descriptive alt text to every image",
			"Include relevant keywords where natural",
			"Describe what the image shows, not just 'image of...'",
			"Keep alt text under 125 characters",
			"Use empty alt='' only for decorative images",
		},
	},
	RuleNoViewportMeta: {
		Title:       "Add Viewport Meta Tag",
		Description: "Without a viewport tag, your page won't display correctly on mobile devices.",
		ActionItems: []string{
			"Add <meta name='viewport' content='width=device-width, initial-scale=1'>",
			"Place it in the <head> section of every page",
			"Test your pages on mobile devices after adding it",
			"Ensure your CSS is responsive",
		},
	},
	RuleNoCanonical: {
		Title:       "Add a Canonical Tag",
		Description: "A canonical tag prevents duplicate content issues and tells Google which URL is the preferred version.",
		ActionItems: []string{
			"Add <link rel='canonical' href='...'> in the <head>",
			"Point it to the preferred URL for each page",
			"Use absolute URLs (not relative)",
			"Ensure it's consistent with your sitemap",
		},
	},
	RuleNoStructuredData: {
		Title:       "Add Structured Data",
		Description: "Structured data (JSON-LD) helps Google understand your content and can enable rich search results.",
		ActionItems: []string{
			"Add LocalBusiness schema for local businesses",
			"Include name, address, phone, opening hours",
			"Add FAQ schema if you have a FAQ section",
			"Test with Google's Rich Results Test tool",
			"Use JSON-LD format (recommended by Google)",
		},
	},
	RuleNotHTTPS: {
		Title:       "Switch to HTTPS",
		Description: "HTTPS is a confirmed Google ranking factor. Without it, browsers also show 'Not Secure' warnings.",
		ActionItems: []string{
			"Obtain an SSL certificate (free via Let's Encrypt)",
			"Install the certificate on your server",
			"Redirect all HTTP URLs to HTTPS",
			"Update internal links and canonical tags to HTTPS",
			"Update your sitemap and Google Search Console",
		},
	},
}
