package weather

// currentResponse is the JSON response for current.json.
type currentResponse struct {
	Location struct {
		Name    string `json:"name"`
		Region  string `json:"region"`
		Country string `json:"country"`
	} `json:"location"`
	Current struct {
		TempC     float64 `json:"temp_c"`
		IsDay     int     `json:"is_day"`
		Condition struct {
			Text string `json:"text"`
			Code int    `json:"code"`
		} `json:"condition"`
	} `json:"current"`
}

// apiError is the error envelope weatherapi.com returns with 4xx responses.
type apiError struct {
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Report is a parsed current conditions lookup.
type Report struct {
	Condition string  `json:"condition"`
	Place     string  `json:"place,omitempty"`
	TempC     float64 `json:"tempC"`
}
