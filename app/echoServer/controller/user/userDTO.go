package user

type SetStateReq struct {
	State string `json:"state" validate:"required,oneof=VALID BLOCKED"`
}
