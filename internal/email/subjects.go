package email

const subjectLeadConfirmationFmt = "Vi har mottatt forespørselen din: %s"
