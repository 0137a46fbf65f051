package mail

import "html/template"

var templates = template.Must(template.New("mail").Parse(`
{{define "confirm"}}<p>Welcome!</p>
<p>Please confirm your email address by following <a href="{{.Link}}">this link</a>.</p>{{end}}

{{define "reset"}}<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Choose a new password</a>. The link expires in one hour.</p>{{end}}

{{define "order"}}<p>Thank you for your order #{{.OrderID}}.</p>
<table>{{range .Lines}}<tr><td>{{.Name}}</td><td>x{{.Qty}}</td><td>{{.Price}}</td></tr>{{end}}</table>
<p>Total: {{.Total}}</p>
<p>Estimated delivery: {{.EstimatedDelivery.Format "2006-01-02"}}</p>{{end}}

{{define "status"}}<p>Your order #{{.OrderID}} is now <strong>{{.Status}}</strong>.</p>{{end}}
`))
