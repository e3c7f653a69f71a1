package dispatch

import (
	"context"
	"fmt"

	"switchboard/internal/campaign"
	"switchboard/internal/logger"
	"switchboard/internal/rules"
	"switchboard/pkg/models"
)

// CampaignTrigger handles trigger_campaign actions by appending the
// event's customer to a campaign contact list. No credits are consumed
// here; the cost is charged when the campaign actually sends.
type CampaignTrigger struct {
	campaigns   campaign.Repository
	countryCode string
	log         logger.Logger
}

func NewCampaignTrigger(campaigns campaign.Repository, countryCode string, log logger.Logger) *CampaignTrigger {
	return &CampaignTrigger{campaigns: campaigns, countryCode: countryCode, log: log}
}

func (t *CampaignTrigger) Trigger(ctx context.Context, event *models.NormalizedEvent, rule *rules.AutomationRule, simulate bool) Result {
	campaignID := rule.ConfigString("campaignId")
	if campaignID == "" {
		return Result{Success: false, Message: "action config is missing campaignId"}
	}
	if event.Customer == nil || event.Customer.Phone == "" {
		return Result{Success: false, Message: "customer phone is missing, cannot add to campaign"}
	}

	phone := NormalizePhone(event.Customer.Phone, t.countryCode)

	if simulate {
		return Result{
			Success: true,
			Message: fmt.Sprintf("simulated: would add %s to campaign %s", phone, campaignID),
		}
	}

	target, err := t.campaigns.FindByID(ctx, campaignID)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("campaign lookup failed: %v", err)}
	}

	exists, err := t.campaigns.ContactExists(ctx, target.ID, phone)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("contact check failed: %v", err)}
	}
	if exists {
		return Result{
			Success: true,
			Message: fmt.Sprintf("contact %s already in campaign %s", phone, target.ID),
		}
	}

	contact := &campaign.Contact{
		CampaignID: target.ID,
		Phone:      phone,
		Name:       event.Customer.Name,
		Email:      event.Customer.Email,
	}

	if err := t.campaigns.AddContact(ctx, contact); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("failed to add contact: %v", err)}
	}

	t.log.InfowCtx(ctx, "contact added to campaign",
		"campaign_id", target.ID,
		"rule_id", rule.ID,
	)

	return Result{
		Success: true,
		Message: fmt.Sprintf("contact %s added to campaign %s", phone, target.ID),
	}
}
