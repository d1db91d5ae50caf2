package apiclient

// Endpoint is a symbolic name for one backend operation. Handlers never
// hard-code backend paths; they go through this registry so the backend
// URL layout stays an internal detail of this package.
type Endpoint string

const (
	EndpointHealth Endpoint = "health"

	EndpointAuthExchange Endpoint = "authExchange"
	EndpointAuthRefresh  Endpoint = "authRefresh"
	EndpointAuthLogout   Endpoint = "authLogout"
	EndpointAuthProfile  Endpoint = "authProfile"

	EndpointSubscriptionStatus     Endpoint = "subscriptionStatus"
	EndpointSubscriptionPlans      Endpoint = "subscriptionPlans"
	EndpointSubscriptionLimits     Endpoint = "subscriptionLimits"
	EndpointSubscriptionStartTrial Endpoint = "subscriptionStartTrial"
	EndpointSubscriptionUpgrade    Endpoint = "subscriptionUpgradeByTier"

	EndpointSnapshotsList  Endpoint = "snapshotsList"
	EndpointSnapshotCreate Endpoint = "snapshotCreate"
	EndpointSnapshotByID   Endpoint = "snapshotById"

	EndpointMetrics Endpoint = "metrics"
)

// endpointPaths maps symbolic names to backend URL templates. Placeholders
// use the {name} form and must be resolved by the request builder before
// dispatch. The map is never mutated after init.
var endpointPaths = map[Endpoint]string{
	EndpointHealth: "/api/v1/health",

	EndpointAuthExchange: "/api/v1/auth/google/exchange",
	EndpointAuthRefresh:  "/api/v1/auth/refresh",
	EndpointAuthLogout:   "/api/v1/auth/logout",
	EndpointAuthProfile:  "/api/v1/auth/profile",

	EndpointSubscriptionStatus:     "/api/v1/subscription/status",
	EndpointSubscriptionPlans:      "/api/v1/subscription/plans",
	EndpointSubscriptionLimits:     "/api/v1/subscription/limits",
	EndpointSubscriptionStartTrial: "/api/v1/subscription/start-trial",
	EndpointSubscriptionUpgrade:    "/api/v1/subscription/upgrade/{tier}",

	EndpointSnapshotsList:  "/api/v1/snapshots",
	EndpointSnapshotCreate: "/api/v1/snapshots",
	EndpointSnapshotByID:   "/api/v1/snapshots/{id}",

	EndpointMetrics: "/api/v1/metrics",
}

// PathTemplate returns the URL template registered for an endpoint
func PathTemplate(endpoint Endpoint) (string, bool) {
	template, exists := endpointPaths[endpoint]
	return template, exists
}
