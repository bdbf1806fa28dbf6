package models

// ApplicationCategory - верхнеуровневая группировка RSIP.
const (
	CategoryIndustrialAutomation = "industrial_automation"
	CategoryServiceRobotics      = "service_robotics"
	CategorySurveillanceSecurity = "surveillance_security"
)

// MediaType константы типов медиа
const (
	MediaTypeVideo     = "video"
	MediaTypeImage     = "image"
	MediaTypePhoto     = "photo"
	MediaTypeArticle   = "article"
	MediaTypeCaseStudy = "case_study"
	MediaTypeGallery   = "gallery"
)

// SourceType константы источников
const (
	SourceCompanyWebsite = "company_website"
	SourceNews           = "news"
	SourceYouTube        = "youtube"
	SourceLinkedIn       = "linkedin"
	SourceTwitter        = "twitter"
	SourceResearch       = "research"
	SourceCaseStudy      = "case_study"
	SourceSerpAPINews    = "serpapi_news"
	SourceSerpAPIImage   = "serpapi_image"
	SourceOther          = "other"
)

// ContentType - таксономия v2.
const (
	ContentTypeRealApplication     = "real_application"
	ContentTypePilotPOC            = "pilot_poc"
	ContentTypeCaseStudy           = "case_study"
	ContentTypeTechDemo            = "tech_demo"
	ContentTypeProductAnnouncement = "product_announcement"
	ContentTypeTutorial            = "tutorial"
	ContentTypeUnknown             = "unknown"
)

// DeploymentMaturity константы зрелости внедрения
const (
	MaturityProduction = "production"
	MaturityPilot      = "pilot"
	MaturityPrototype  = "prototype"
	MaturityConcept    = "concept"
	MaturityUnknown    = "unknown"
)

// EnvironmentSetting константы окружения
const (
	EnvironmentIndoor  = "indoor"
	EnvironmentOutdoor = "outdoor"
	EnvironmentMixed   = "mixed"
)

// ReportReason константы причин жалоб
const (
	ReportReasonInappropriate = "inappropriate"
	ReportReasonCopyright     = "copyright"
	ReportReasonMisleading    = "misleading"
	ReportReasonBrokenLink    = "broken_link"
	ReportReasonSpam          = "spam"
	ReportReasonOther         = "other"
)

// Сортировки публичной галереи.
const (
	SortRecent  = "recent"
	SortPopular = "popular"
	SortOldest  = "oldest"
	SortQuality = "quality"
)

// Границы образовательной ценности.
const (
	MinEducationalValue = 1
	MaxEducationalValue = 5
)

// Categories - порядок категорий для статистики и фильтров.
var Categories = []string{
	CategoryIndustrialAutomation,
	CategoryServiceRobotics,
	CategorySurveillanceSecurity,
}

// ContentTypes - все типы контента в порядке таксономии.
var ContentTypes = []string{
	ContentTypeRealApplication,
	ContentTypePilotPOC,
	ContentTypeCaseStudy,
	ContentTypeTechDemo,
	ContentTypeProductAnnouncement,
	ContentTypeTutorial,
	ContentTypeUnknown,
}

// QualityContentTypes - «порог качества» публичной галереи.
var QualityContentTypes = []string{
	ContentTypeRealApplication,
	ContentTypeCaseStudy,
	ContentTypePilotPOC,
}

// QualityMinEducationalValue - минимальная ценность для порога качества.
const QualityMinEducationalValue = 3

var ValidCategories = setOf(Categories...)

var ValidMediaTypes = setOf(
	MediaTypeVideo, MediaTypeImage, MediaTypePhoto,
	MediaTypeArticle, MediaTypeCaseStudy, MediaTypeGallery,
)

var ValidSourceTypes = setOf(
	SourceCompanyWebsite, SourceNews, SourceYouTube, SourceLinkedIn, SourceTwitter,
	SourceResearch, SourceCaseStudy, SourceSerpAPINews, SourceSerpAPIImage, SourceOther,
)

var ValidContentTypes = setOf(ContentTypes...)

var ValidDeploymentMaturities = setOf(
	MaturityProduction, MaturityPilot, MaturityPrototype, MaturityConcept, MaturityUnknown,
)

var ValidEnvironmentSettings = setOf(EnvironmentIndoor, EnvironmentOutdoor, EnvironmentMixed)

var ValidSorts = setOf(SortRecent, SortPopular, SortOldest, SortQuality)

var ValidReportReasons = setOf(
	ReportReasonInappropriate, ReportReasonCopyright, ReportReasonMisleading,
	ReportReasonBrokenLink, ReportReasonSpam, ReportReasonOther,
)

func setOf(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
