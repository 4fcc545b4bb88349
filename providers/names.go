package providers

import "github.com/9seconds/geolocator/geolib"

const (
	NameMaxmindDatabase   = string(geolib.ServiceMaxmindDatabase)
	NameMaxmindWebService = string(geolib.ServiceMaxmindWebService)
	NameLegacy            = string(geolib.ServiceLegacy)
)
