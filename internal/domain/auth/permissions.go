package auth

const (
	RoleEmployee = "employee"
	RoleManager  = "manager"
	RoleHR       = "hr"
)

const (
	PermKPIRead          = "kpi.read"
	PermKPIReview        = "kpi.review"
	PermKPIStatsRead     = "kpi.stats.read"
	PermRatingsCalculate = "ratings.calculate"
	PermFeaturesRead     = "features.read"
	PermFeaturesWrite    = "features.write"
)

var DefaultPermissions = []string{
	PermKPIRead,
	PermKPIReview,
	PermKPIStatsRead,
	PermRatingsCalculate,
	PermFeaturesRead,
	PermFeaturesWrite,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermKPIRead,
		PermRatingsCalculate,
		PermFeaturesRead,
	},
	RoleManager: {
		PermKPIRead,
		PermKPIReview,
		PermKPIStatsRead,
		PermRatingsCalculate,
		PermFeaturesRead,
	},
	RoleHR: {
		PermKPIRead,
		PermKPIStatsRead,
		PermRatingsCalculate,
		PermFeaturesRead,
		PermFeaturesWrite,
	},
}

func HasPermission(role, permission string) bool {
	for _, perm := range RolePermissions[role] {
		if perm == permission {
			return true
		}
	}
	return false
}
