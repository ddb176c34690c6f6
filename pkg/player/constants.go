package player

// StarterWeaponName is granted to every new account at zero cost.
const StarterWeaponName = "pistol"

const (
	operationCreateAccount   = "create_account"
	operationUpdateStats     = "update_stats"
	operationPurchase        = "purchase"
	operationEquipWeapon     = "equip_weapon"
	operationSetActiveSkills = "set_active_skills"
	operationDeleteAccount   = "delete_account"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	detailWeaponChangeDropped = "unowned weapon change dropped"
	detailSkillChangeDropped  = "unowned skill change dropped"
)
