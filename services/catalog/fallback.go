package catalog

import "almanara_go/models"

// Hardcoded fallback datasets served when the upstream API is unreachable,
// so public pages render something instead of an error page. Responses built
// from these carry degraded=true.

func fallbackCourses() []models.Course {
	return []models.Course{
		{ID: 1, Name: "Quran Recitation", Description: "Tajweed fundamentals and guided recitation", Duration: "3 months", PriceUSD: 100, PriceSAR: 375, Rank: 1, SpecID: 1},
		{ID: 2, Name: "Arabic for Beginners", Description: "Reading, writing and everyday conversation", Duration: "4 months", PriceUSD: 120, PriceSAR: 450, Rank: 2, SpecID: 2},
		{ID: 3, Name: "Islamic Studies", Description: "Foundations of fiqh and seerah", Duration: "6 months", PriceUSD: 150, PriceSAR: 560, Rank: 3, SpecID: 3},
	}
}

func fallbackTeachers() []models.Teacher {
	return []models.Teacher{
		{ID: 1, Name: "Ahmad Saleh", Nationality: "Egypt", Specialization: "Quran"},
		{ID: 2, Name: "Mariam Alshehri", Nationality: "Saudi Arabia", Specialization: "Arabic"},
	}
}

func fallbackSpecializations() []models.Specialization {
	return []models.Specialization{
		{ID: 1, Name: "Quran"},
		{ID: 2, Name: "Arabic"},
		{ID: 3, Name: "Islamic Studies"},
	}
}

func fallbackPaymentMethods() []models.PaymentMethod {
	return []models.PaymentMethod{
		{ID: 1, Name: "Bank transfer", Details: "IBAN available on request"},
		{ID: 2, Name: "Western Union", Details: "Send to the academy office"},
	}
}
