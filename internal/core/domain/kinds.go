package domain

type ResourceKind string

const (
	KindRole          ResourceKind = "Role"
	KindFunction      ResourceKind = "Function"
	KindRepository    ResourceKind = "Repository"
	KindGateway       ResourceKind = "Gateway"
	KindGatewayTarget ResourceKind = "GatewayTarget"
)

func (rk ResourceKind) String() string {
	return string(rk)
}
