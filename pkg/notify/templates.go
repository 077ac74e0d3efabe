package notify

import "fmt"

// Plain HTML bodies matching the messages the dashboard's users already
// receive. Kept as format strings; nothing here needs a template engine.

func welcomeBody(username, password, firstName string) string {
	return fmt.Sprintf(`<h2>Welcome, %s!</h2>
<p>Your account has been created. Use the credentials below to sign in:</p>
<p>Username: <b>%s</b><br>Password: <b>%s</b></p>
<p>Please change your password after the first login.</p>`,
		firstName, username, password)
}

func loginNoticeBody(username, firstName, loginTime, ipAddress, userAgent string) string {
	return fmt.Sprintf(`<h2>Hello, %s</h2>
<p>Your account <b>%s</b> signed in at %s.</p>
<p>IP address: %s<br>Client: %s</p>
<p>If this was not you, reset your password immediately.</p>`,
		firstName, username, loginTime, ipAddress, userAgent)
}

func defectAssignedBody(defectTitle, assigneeName, assignerName string) string {
	return fmt.Sprintf(`<h2>Defect assigned</h2>
<p>Hi %s,</p>
<p>%s assigned the defect <b>%s</b> to you.</p>`,
		assigneeName, assignerName, defectTitle)
}

func defectStatusChangedBody(defectTitle, changedBy, oldStatus, newStatus string) string {
	return fmt.Sprintf(`<h2>Defect status changed</h2>
<p>The defect <b>%s</b> moved from <b>%s</b> to <b>%s</b>.</p>
<p>Changed by: %s</p>`,
		defectTitle, oldStatus, newStatus, changedBy)
}

func projectAssignedBody(projectName, roleName, assignedBy string) string {
	return fmt.Sprintf(`<h2>Project assignment</h2>
<p>%s added you to the project <b>%s</b> as <b>%s</b>.</p>`,
		assignedBy, projectName, roleName)
}

func releaseCreatedBody(releaseName, version, projectName string) string {
	return fmt.Sprintf(`<h2>New release</h2>
<p>Release <b>%s %s</b> was created in project <b>%s</b>.</p>`,
		releaseName, version, projectName)
}
