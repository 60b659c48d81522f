// Package i18n holds the user-facing message catalog.
package i18n

import (
	"fmt"

	"golang.org/x/text/language"
)

type Key string

const (
	QuotaExceeded      Key = "quota_exceeded"
	InvalidInput       Key = "invalid_input"
	ServiceError       Key = "service_error"
	PersistenceError   Key = "persistence_error"
	Busy               Key = "busy"
	Unauthorized       Key = "unauthorized"
	MissingCredentials Key = "missing_credentials"
	NoSession          Key = "no_session"
	UnsupportedPlan    Key = "unsupported_plan"
	CurrentPlan        Key = "current_plan"
	CardDetails        Key = "card_details"
	UPIID              Key = "upi_id"
	PaymentMethod      Key = "payment_method"
	PaymentFailed      Key = "payment_failed"
	PaymentSuccess     Key = "payment_success"
	NotFound           Key = "not_found"
	RateLimited        Key = "rate_limited"
	Internal           Key = "internal"
)

var supported = []language.Tag{language.English, language.Indonesian}

var matcher = language.NewMatcher(supported)

var catalog = map[string]map[Key]string{
	"en": {
		QuotaExceeded:      "Token limit reached. Please upgrade your subscription to continue.",
		InvalidInput:       "Please enter a valid prompt or paste text to proceed.",
		ServiceError:       "Failed to generate content. Please check the prompt, network connection, or API status.",
		PersistenceError:   "Database connection error. Please try again later.",
		Busy:               "A generation is already in progress.",
		Unauthorized:       "Authentication failed.",
		MissingCredentials: "Please enter both email and password.",
		NoSession:          "Please sign in to continue.",
		UnsupportedPlan:    "No plan selected or invalid plan.",
		CurrentPlan:        "You are already on this plan.",
		CardDetails:        "Please fill out mock card details.",
		UPIID:              "Please enter a mock UPI ID.",
		PaymentMethod:      "Unsupported payment method.",
		PaymentFailed:      "Payment processing failed. Try again.",
		PaymentSuccess:     "Payment successful! You are now on the %s plan.",
		NotFound:           "Not found.",
		RateLimited:        "Too many requests. Please slow down.",
		Internal:           "An unexpected error occurred.",
	},
	"id": {
		QuotaExceeded:      "Batas token tercapai. Silakan tingkatkan langganan Anda untuk melanjutkan.",
		InvalidInput:       "Masukkan prompt yang valid atau tempel teks untuk melanjutkan.",
		ServiceError:       "Gagal membuat konten. Periksa prompt, koneksi jaringan, atau status API.",
		PersistenceError:   "Koneksi database bermasalah. Silakan coba lagi nanti.",
		Busy:               "Proses pembuatan konten sedang berjalan.",
		Unauthorized:       "Autentikasi gagal.",
		MissingCredentials: "Masukkan email dan kata sandi.",
		NoSession:          "Silakan masuk untuk melanjutkan.",
		UnsupportedPlan:    "Paket tidak dipilih atau tidak valid.",
		CurrentPlan:        "Anda sudah menggunakan paket ini.",
		CardDetails:        "Lengkapi detail kartu tiruan.",
		UPIID:              "Masukkan UPI ID tiruan.",
		PaymentMethod:      "Metode pembayaran tidak didukung.",
		PaymentFailed:      "Pemrosesan pembayaran gagal. Coba lagi.",
		PaymentSuccess:     "Pembayaran berhasil! Anda sekarang menggunakan paket %s.",
		NotFound:           "Tidak ditemukan.",
		RateLimited:        "Terlalu banyak permintaan. Coba lagi sebentar.",
		Internal:           "Terjadi kesalahan yang tidak terduga.",
	},
}

// Match picks the best supported locale for an Accept-Language style value.
// It returns the empty string when nothing could be parsed.
func Match(accept string) string {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return ""
	}
	tag, _, _ := matcher.Match(tags...)
	return baseOf(tag)
}

// Normalize maps any locale onto a supported one, defaulting to English.
func Normalize(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return language.English.String()
	}
	matched, _, _ := matcher.Match(tag)
	return baseOf(matched)
}

// Region returns the region subtag of locale when one is present.
func Region(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return ""
	}
	region, conf := tag.Region()
	if conf != language.Exact {
		return ""
	}
	return region.String()
}

// T returns the message for key in locale, falling back to English.
func T(locale string, key Key, args ...any) string {
	msgs := catalog[Normalize(locale)]
	msg, ok := msgs[key]
	if !ok {
		msg, ok = catalog["en"][key]
		if !ok {
			return string(key)
		}
	}
	if len(args) > 0 {
		return fmt.Sprintf(msg, args...)
	}
	return msg
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
