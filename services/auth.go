package services

// AddBearer agrega el header Authorization si hay token configurado.
func AddBearer(headers map[string]string, token string) map[string]string {
	if headers == nil {
		headers = make(map[string]string)
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	return headers
}
