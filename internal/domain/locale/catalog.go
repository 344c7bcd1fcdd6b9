package locale

// Key names a translatable string produced by the backend.
type Key string

const (
	KeyRecommendationFailed Key = "recommendation.error"
	KeyFillField            Key = "recommendation.fillField"
	KeyDiseaseUnknown       Key = "disease.unknown"
	KeyDiseaseGeneral       Key = "disease.general"
	KeyDiseaseError         Key = "disease.error"
	KeyImageRequired        Key = "disease.imageRequired"
	KeySeverityHigh         Key = "severity.high"
	KeySeverityModerate     Key = "severity.moderate"
	KeySeverityLow          Key = "severity.low"
	KeySeverityUnknown      Key = "severity.unknown"
	KeyPrecaution1          Key = "precautions.1"
	KeyPrecaution2          Key = "precautions.2"
	KeyPrecaution3          Key = "precautions.3"
	KeyPrecaution4          Key = "precautions.4"
	KeyPrecaution5          Key = "precautions.5"
	KeyRecommendation1      Key = "recommendations.1"
	KeyRecommendation2      Key = "recommendations.2"
	KeyRecommendation3      Key = "recommendations.3"
	KeyRecommendation4      Key = "recommendations.4"
	KeyRecommendation5      Key = "recommendations.5"
	KeyChatGreeting         Key = "chat.greeting"
	KeyChatError            Key = "chat.error"
	KeyLocalityUnknown      Key = "location.unknown"
)

var catalog = map[Code]map[Key]string{
	English: {
		KeyRecommendationFailed: "Prediction failed. Please try again.",
		KeyFillField:            "Please fill %s",
		KeyDiseaseUnknown:       "Unknown Disease",
		KeyDiseaseGeneral:       "General",
		KeyDiseaseError:         "Something went wrong! Please try again.",
		KeyImageRequired:        "Please select an image first",
		KeySeverityHigh:         "High",
		KeySeverityModerate:     "Moderate",
		KeySeverityLow:          "Low",
		KeySeverityUnknown:      "Unknown",
		KeyPrecaution1:          "Remove affected leaves immediately",
		KeyPrecaution2:          "Apply recommended fungicide",
		KeyPrecaution3:          "Improve air circulation around plants",
		KeyPrecaution4:          "Apply copper-based fungicide spray",
		KeyPrecaution5:          "Reduce irrigation frequency",
		KeyRecommendation1:      "Monitor neighboring plants",
		KeyRecommendation2:      "Use disease-resistant crop variety next season",
		KeyRecommendation3:      "Maintain proper spacing for airflow",
		KeyRecommendation4:      "Apply preventive treatments during high-risk periods",
		KeyRecommendation5:      "Remove alternate host plants nearby",
		KeyChatGreeting:         "Hello! I'm your AI agricultural assistant. I can help you with crop diseases, farming techniques, weather advice, and more. How can I assist you today?",
		KeyChatError:            "I apologize, but I encountered an error while processing your request. Please try again.",
		KeyLocalityUnknown:      "Unknown",
	},
	Malayalam: {
		KeyRecommendationFailed: "ശുപാർശ പരാജയപ്പെട്ടു. ദയവായി വീണ്ടും ശ്രമിക്കുക.",
		KeyFillField:            "ദയവായി %s പൂരിപ്പിക്കുക",
		KeyDiseaseUnknown:       "അജ്ഞാത രോഗം",
		KeyDiseaseGeneral:       "പൊതു",
		KeyDiseaseError:         "തെറ്റായി! ദയവായി വീണ്ടും ശ്രമിക്കുക.",
		KeyImageRequired:        "ദയവായി ആദ്യം ഒരു ചിത്രം തിരഞ്ഞെടുക്കുക",
		KeySeverityHigh:         "ഉയർന്നത്",
		KeySeverityModerate:     "മിതമായത്",
		KeySeverityLow:          "കുറഞ്ഞത്",
		KeySeverityUnknown:      "അജ്ഞാതം",
		KeyPrecaution1:          "ബാധിത ഇലകൾ ഉടൻ നീക്കം ചെയ്യുക",
		KeyPrecaution2:          "ശിപാർശ ചെയ്ത ഫംഗിസൈഡ് പ്രയോഗിക്കുക",
		KeyPrecaution3:          "ചുറ്റുമുള്ള വായു സഞ്ചാരം മെച്ചപ്പെടുത്തുക",
		KeyPrecaution4:          "താമ്ര-അടിസ്ഥാന ഫംഗിസൈഡ് സ്പ്രേ പ്രയോഗിക്കുക",
		KeyPrecaution5:          "ജലസേചനം കുറയ്ക്കുക",
		KeyRecommendation1:      "അയൽ ചെടികൾ നിരീക്ഷിക്കുക",
		KeyRecommendation2:      "അടുത്ത സീസണിൽ രോഗ-പ്രതിരോധ ഇനം ഉപയോഗിക്കുക",
		KeyRecommendation3:      "വായു സഞ്ചാരത്തിനായി ശരിയായ അകലം പാലിക്കുക",
		KeyRecommendation4:      "ഉയർന്ന അപകടസാധ്യതയുള്ള കാലത്ത് പ്രതിരോധ ചികിത്സകൾ പ്രയോഗിക്കുക",
		KeyRecommendation5:      "സമീപത്തുള്ള ഇതര ആതിഥേയ ചെടികൾ നീക്കം ചെയ്യുക",
		KeyChatGreeting:         "നമസ്കാരം! ഞാൻ നിങ്ങളുടെ AI കാർഷിക സഹായിയാണ്. വിള രോഗങ്ങൾ, കൃഷി രീതികൾ, കാലാവസ്ഥ എന്നിവയിൽ ഞാൻ സഹായിക്കാം.",
		KeyChatError:            "ക്ഷമിക്കണം, നിങ്ങളുടെ അഭ്യർത്ഥന പ്രോസസ്സ് ചെയ്യുന്നതിൽ പിശക് സംഭവിച്ചു. ദയവായി വീണ്ടും ശ്രമിക്കുക.",
		KeyLocalityUnknown:      "അജ്ഞാതം",
	},
	Hindi: {
		KeyRecommendationFailed: "सिफारिश विफल रही। कृपया पुनः प्रयास करें।",
		KeyFillField:            "कृपया %s भरें",
		KeyDiseaseUnknown:       "अज्ञात रोग",
		KeyDiseaseGeneral:       "सामान्य",
		KeyDiseaseError:         "कुछ गलत हो गया! कृपया पुनः प्रयास करें।",
		KeyImageRequired:        "कृपया पहले एक छवि चुनें",
		KeySeverityHigh:         "उच्च",
		KeySeverityModerate:     "मध्यम",
		KeySeverityLow:          "कम",
		KeySeverityUnknown:      "अज्ञात",
		KeyPrecaution1:          "प्रभावित पत्तियों को तुरंत हटा दें",
		KeyPrecaution2:          "अनुशंसित कवकनाशी लागू करें",
		KeyPrecaution3:          "पौधों के आसपास हवा का संचार सुधारें",
		KeyPrecaution4:          "तांबा आधारित कवकनाशी स्प्रे लागू करें",
		KeyPrecaution5:          "सिंचाई की आवृत्ति कम करें",
		KeyRecommendation1:      "पड़ोसी पौधों की निगरानी करें",
		KeyRecommendation2:      "अगले सीजन में रोग प्रतिरोधी फसल किस्म का उपयोग करें",
		KeyRecommendation3:      "हवा के प्रवाह के लिए उचित दूरी बनाए रखें",
		KeyRecommendation4:      "उच्च जोखिम वाली अवधि के दौरान निवारक उपचार लागू करें",
		KeyRecommendation5:      "आस-पास के वैकल्पिक मेजबान पौधों को हटा दें",
		KeyChatGreeting:         "नमस्ते! मैं आपका AI कृषि सहायक हूँ। मैं फसल रोग, खेती की तकनीक और मौसम सलाह में मदद कर सकता हूँ।",
		KeyChatError:            "क्षमा करें, आपके अनुरोध को संसाधित करते समय त्रुटि हुई। कृपया पुनः प्रयास करें।",
		KeyLocalityUnknown:      "अज्ञात",
	},
}

// T returns the translation of key for c, falling back to English and finally
// to the key itself.
func T(c Code, key Key) string {
	if table, ok := catalog[c]; ok {
		if v, ok := table[key]; ok {
			return v
		}
	}
	if v, ok := catalog[Default][key]; ok {
		return v
	}
	return string(key)
}

// List translates keys in order.
func List(c Code, keys ...Key) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, T(c, k))
	}
	return out
}
