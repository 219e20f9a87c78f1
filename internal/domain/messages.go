package domain

import "errors"

const (
	LocaleEnglish    = "en"
	LocaleIndonesian = "id"
)

const MsgRetryLimit = "Maximum retries reached. Try a different prompt or check your API keys."

var kindMessages = map[string]map[ErrorKind]string{
	LocaleEnglish: {
		KindNetwork:       "Connection issue. Check your internet and try again.",
		KindAuth:          "API authentication failed. Please check your API key.",
		KindRateLimit:     "Too many requests. Please wait before trying again.",
		KindContentPolicy: "Prompt may violate content policy. Try rephrasing.",
		KindServerError:   "AI service temporarily unavailable. Trying another service...",
		KindTimeout:       "Request timed out. Try again later.",
	},
	LocaleIndonesian: {
		KindNetwork:       "Koneksi bermasalah. Periksa internet Anda lalu coba lagi.",
		KindAuth:          "Autentikasi API gagal. Periksa kembali API key Anda.",
		KindRateLimit:     "Terlalu banyak permintaan. Tunggu sebentar sebelum mencoba lagi.",
		KindContentPolicy: "Prompt mungkin melanggar kebijakan konten. Coba ubah kalimatnya.",
		KindServerError:   "Layanan AI sedang tidak tersedia. Mencoba layanan lain...",
		KindTimeout:       "Permintaan melebihi batas waktu. Coba lagi nanti.",
	},
}

var fallbackMessages = map[string]string{
	LocaleEnglish:    "Unexpected error. Please try again.",
	LocaleIndonesian: "Terjadi kesalahan tak terduga. Silakan coba lagi.",
}

var retryLimitMessages = map[string]string{
	LocaleEnglish:    MsgRetryLimit,
	LocaleIndonesian: "Batas percobaan ulang tercapai. Coba prompt lain atau periksa API key Anda.",
}

// UserMessage maps err to the single human-readable line shown to the user.
// Classified errors use the per-kind dictionary; anything else falls back to
// its own message.
func UserMessage(err error, locale string) string {
	if err == nil {
		return ""
	}
	if locale != LocaleIndonesian {
		locale = LocaleEnglish
	}
	if errors.Is(err, ErrRetryLimit) {
		return retryLimitMessages[locale]
	}
	ce := AsClassified(err)
	if msg, ok := kindMessages[locale][ce.Kind]; ok {
		return msg
	}
	if ce.Message != "" {
		return ce.Message
	}
	return fallbackMessages[locale]
}
